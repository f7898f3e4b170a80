package repository

import (
	"context"
	"errors"

	"powerchip/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	CategoryID *int64
	Search     string
	//newest / price_asc / price_desc / name
	Sort              string
	IncludeOutOfStock bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	ListActive(ctx context.Context) ([]model.Category, error)
}
