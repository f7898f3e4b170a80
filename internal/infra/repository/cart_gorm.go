package repository

import (
	"context"
	"errors"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 明細＋現在の商品情報（価格は現在価格）
func (r *CartGormRepository) ListLinesByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.id, cart_items.product_id, products.name, products.image_url, cart_items.quantity, " +
			"cart_items.unit_price, products.price AS current_price, products.stock_quantity, products.active").
		Joins("JOIN products ON products.id = cart_items.product_id AND products.deleted_at IS NULL").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id asc").
		Scan(&lines).Error
	if err != nil {
		return []model.CartLine{}, err
	}
	return lines, nil
}

// 同一商品は数量加算（1文のupsert）
// 加算後の数量が在庫を超える場合は更新されずfalse
func (r *CartGormRepository) UpsertAddWithinStock(ctx context.Context, item model.CartItem) (bool, error) {
	if item.Quantity <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("cart_items.quantity + excluded.quantity <= (SELECT stock_quantity FROM products WHERE products.id = excluded.product_id)"),
		}},
	}).Create(&item)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 無くてもエラーにしない
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID).Error
}

func (r *CartGormRepository) ClearByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
}
