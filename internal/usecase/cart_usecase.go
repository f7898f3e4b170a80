package usecase

import (
	"context"
	"errors"
	"net/http"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// 数量の加算は在庫条件付きのupsert 1文で行う（同時追加でも在庫を超えない）
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(cartItemRepo repo.CartItemRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// price は現在の商品価格（追加時点の価格ではない）
type CartItemResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	Price         decimal.Decimal `json:"price"`
	AddedPrice    decimal.Decimal `json:"added_price"`
	Quantity      int64           `json:"quantity"`
	StockQuantity int64           `json:"stock_quantity"`
	Active        bool            `json:"active"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int64              `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func insufficientStock(name string) error {
	return NewHTTPError(http.StatusBadRequest, "insufficient stock for "+name)
}

var errProductNotFound = NewHTTPError(http.StatusNotFound, "product not found")

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	return u.buildCartResponse(ctx, userID)
}

// カートに追加（同一商品は数量加算）
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, errProductNotFound
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	if !p.IsActive {
		return CartResponse{}, errProductNotFound
	}
	if in.Quantity > p.StockQuantity {
		return CartResponse{}, insufficientStock(p.Name)
	}

	// 既存分との合計が在庫を超える場合はDB側で弾かれる
	ok, err := u.cartItemRepo.UpsertAddWithinStock(ctx, model.CartItem{
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: p.Price,
	})
	if err != nil {
		return CartResponse{}, errDB
	}
	if !ok {
		return CartResponse{}, insufficientStock(p.Name)
	}

	return u.buildCartResponse(ctx, userID)
}

// 数量変更。0以下は削除
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, errNotFound
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	if item.UserID != userID {
		return CartResponse{}, errForbidden
	}

	if in.Quantity <= 0 {
		if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
			return CartResponse{}, errDB
		}
		return u.buildCartResponse(ctx, userID)
	}

	//商品の在庫チェック（現在値）
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, errProductNotFound
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	if !p.IsActive {
		return CartResponse{}, errProductNotFound
	}
	if in.Quantity > p.StockQuantity {
		return CartResponse{}, insufficientStock(p.Name)
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, errNotFound
		}
		return CartResponse{}, errDB
	}
	return u.buildCartResponse(ctx, userID)
}

// 明細削除。無い明細でもエラーにしない
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return u.buildCartResponse(ctx, userID)
	case err != nil:
		return CartResponse{}, errDB
	case item.UserID != userID:
		return CartResponse{}, errForbidden
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, errDB
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if err := u.cartItemRepo.ClearByUserID(ctx, userID); err != nil {
		return CartResponse{}, errDB
	}
	return CartResponse{Items: []CartItemResponse{}, Total: decimal.Zero}, nil
}

// 明細（現在の商品情報つき）をまとめてCartResponseを作る
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.cartItemRepo.ListLinesByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB
	}

	resp := CartResponse{Items: make([]CartItemResponse, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		lineTotal := l.CurrentPrice.Mul(decimal.NewFromInt(l.Quantity))
		resp.Items = append(resp.Items, CartItemResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			Name:          l.Name,
			ImageURL:      l.ImageURL,
			Price:         l.CurrentPrice,
			AddedPrice:    l.UnitPrice,
			Quantity:      l.Quantity,
			StockQuantity: l.StockQuantity,
			Active:        l.Active,
			LineTotal:     lineTotal,
		})
		resp.ItemCount += l.Quantity
		resp.Total = resp.Total.Add(lineTotal)
	}
	return resp, nil
}
