package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	auditRepo  repo.AuditLogRepository
	cache      StatusCache
	now        func() time.Time
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
	cache StatusCache,
) *AdminOrderUsecase {
	if cache == nil {
		cache = NoopStatusCache
	}
	return &AdminOrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		auditRepo:  auditRepo,
		cache:      cache,
		now:        time.Now,
	}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Orders     []OrderOutput `json:"orders"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, errDB
	}

	outs, err := hydrateOrders(ctx, u.orderItems, orders)
	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return AdminOrderListOutput{
		Orders:     outs,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages(total, f.Limit),
	}, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
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

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return toOrderOutput(o, items), nil
}

// 管理者が変更できる配送ステータス
var adminSettableStatuses = map[model.OrderStatus]struct{}{
	model.OrderStatusPending:    {},
	model.OrderStatusProcessing: {},
	model.OrderStatusShipped:    {},
	model.OrderStatusDelivered:  {},
	model.OrderStatusCancelled:  {},
}

// 配送の進み具合
var fulfilmentRank = map[model.OrderStatus]int{
	model.OrderStatusPending:    0,
	model.OrderStatusConfirmed:  1,
	model.OrderStatusProcessing: 2,
	model.OrderStatusShipped:    3,
	model.OrderStatusDelivered:  4,
}

// ステータス更新。
// 発送・配達済みは入金済みの注文だけ。キャンセルは在庫を1回だけ戻す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if _, ok := adminSettableStatuses[newStatus]; !ok {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var paymentID *string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		// 終端ガード
		switch o.Status {
		case model.OrderStatusCancelled, model.OrderStatusDelivered, model.OrderStatusRefunded:
			return NewHTTPError(http.StatusConflict, "cannot change "+string(o.Status)+" order")
		}
		if (newStatus == model.OrderStatusShipped || newStatus == model.OrderStatusDelivered) &&
			o.PaymentStatus != model.PaymentStatusPaid {
			return NewHTTPError(http.StatusConflict, "order not paid")
		}
		// 入金済みは前にしか進めない（キャンセルは別扱い）
		if o.PaymentStatus == model.PaymentStatusPaid && newStatus != model.OrderStatusCancelled &&
			fulfilmentRank[newStatus] <= fulfilmentRank[o.Status] {
			return NewHTTPError(http.StatusConflict, "paid order cannot move back to "+string(newStatus))
		}

		now := u.now()
		beforeJSON := toJSON(map[string]string{"status": string(o.Status), "payment_status": string(o.PaymentStatus)})
		afterPS := o.PaymentStatus

		if newStatus == model.OrderStatusCancelled {
			admin := actorAdminUserID
			if _, err := restoreOrderStock(ctx, r, orderID, "order cancelled by admin", &admin, now); err != nil {
				return errDB
			}

			//未決済ならお金の側もキャンセル
			if o.PaymentStatus == model.PaymentStatusPending || o.PaymentStatus == model.PaymentStatusProcessing {
				afterPS = model.PaymentStatusCancelled
			}
		}

		if afterPS != o.PaymentStatus {
			err = r.Orders().UpdatePaymentState(ctx, orderID, afterPS, newStatus)
		} else {
			err = r.Orders().UpdateStatus(ctx, orderID, newStatus)
		}
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    toJSON(map[string]string{"status": string(newStatus), "payment_status": string(afterPS)}),
			CreatedAt:    now,
		}); err != nil {
			return errDB
		}

		paymentID = o.PaymentID
		return nil
	})
	if err != nil {
		return err
	}

	if paymentID != nil {
		_ = u.cache.Invalidate(ctx, *paymentID)
	}
	return nil
}

// キャンセル済みの注文だけ物理削除できる
func (u *AdminOrderUsecase) Delete(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}
		if o.Status != model.OrderStatusCancelled {
			return NewHTTPError(http.StatusConflict, "only cancelled orders can be deleted")
		}

		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return errDB
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionDeleteOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   toJSON(map[string]any{"order_number": o.OrderNumber, "status": o.Status, "total_amount": o.TotalAmount}),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}
		return nil
	})
}

// 監査ログ一覧
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 200 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, errDB
	}
	return logs, nil
}
