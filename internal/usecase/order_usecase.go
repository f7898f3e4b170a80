package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
	"powerchip/internal/validator"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	now         func() time.Time
	orderNumber func(time.Time) string
}

func NewOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, orderItems repo.OrderItemRepository) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		orders:      orders,
		orderItems:  orderItems,
		now:         time.Now,
		orderNumber: newOrderNumber,
	}
}

// ORD-<unix ms>-<4桁>
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), rand.Intn(10000))
}

type CreateOrderInput struct {
	// 空ならpix
	PaymentMethod   model.PaymentMethod
	ShippingAddress *model.ShippingAddress
	Notes           string
}

type OrderItemOutput struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          int64                 `json:"user_id"`
	Status          model.OrderStatus     `json:"status"`
	PaymentStatus   model.PaymentStatus   `json:"payment_status"`
	PaymentMethod   model.PaymentMethod   `json:"payment_method"`
	PaymentID       *string               `json:"payment_id"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	Notes           string                `json:"notes"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Items           []OrderItemOutput     `json:"items"`
}

type OrderListOutput struct {
	Orders     []OrderOutput `json:"orders"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// カートから注文を作る。
// 在庫の減算・注文と明細の作成・カートのクリアは1つのTx（どれか失敗すれば全部戻る）
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}

	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentMethodPix
	}
	if !method.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var address model.ShippingAddress
	if in.ShippingAddress != nil && !in.ShippingAddress.IsZero() {
		if err := validator.ValidateShippingAddress(*in.ShippingAddress); err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
		}
		address = validator.NormalizeShippingAddress(*in.ShippingAddress)
	}
	if len(in.Notes) > 1000 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "notes too long")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return errDB
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//在庫を確定時に再チェックして減らす
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		subtotal := decimal.Zero

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d unavailable", ci.ProductID))
			}
			if err != nil {
				return errDB
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product "+p.Name+" unavailable")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return errDB
			}
			if !ok {
				return insufficientStock(p.Name)
			}

			//価格は確定時点の商品価格
			lineTotal := p.Price.Mul(decimal.NewFromInt(ci.Quantity))
			orderItems = append(orderItems, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				SKU:         p.SKU,
				Quantity:    ci.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		now := u.now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			OrderNumber:     u.orderNumber(now),
			Subtotal:        subtotal,
			TotalAmount:     subtotal,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusPending,
			PaymentMethod:   method,
			ShippingAddress: address,
			Notes:           strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return errDB
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return errDB
		}

		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return errDB
		}

		created, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return errDB
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB
		}

		out = toOrderOutput(created, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, errDB
	}

	outs, err := hydrateOrders(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{
		Orders:     outs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// 注文詳細。他人の注文は「存在しない扱い」（管理者は全件見られる）
func (u *OrderUsecase) GetOrder(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, errNotFound
	}
	if err != nil {
		return OrderOutput{}, errDB
	}
	if !o.IsOwnedBy(actor.UserID) && !actor.IsAdmin() {
		return OrderOutput{}, errNotFound
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return toOrderOutput(o, items), nil
}

// 支払い待ちの最新の注文（チェックアウト画面の再開用）
func (u *OrderUsecase) LatestPendingOrder(ctx context.Context, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}

	o, err := u.orders.FindLatestPendingByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "no pending order")
	}
	if err != nil {
		return OrderOutput{}, errDB
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return toOrderOutput(o, items), nil
}

func hydrateOrders(ctx context.Context, itemsRepo repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := itemsRepo.ListByOrderID(ctx, o.ID)
		if err != nil {
			return []OrderOutput{}, errDB
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		PaymentID:       o.PaymentID,
		Subtotal:        o.Subtotal,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}
