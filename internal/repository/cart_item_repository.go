package repository

import (
	"context"

	"powerchip/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 現在の商品情報をjoinした明細
	ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)

	// 同一商品は数量加算。合計が在庫を超える場合は何もせずfalse
	UpsertAddWithinStock(ctx context.Context, item model.CartItem) (bool, error)

	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	ClearByUserID(ctx context.Context, userID int64) error
}
