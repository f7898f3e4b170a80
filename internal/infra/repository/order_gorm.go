package repository

import (
	"context"
	"errors"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", orderID))
}

func (r *OrderGormRepository) FindByPaymentID(ctx context.Context, paymentID string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("payment_id = ?", paymentID))
}

// 最新の未払い注文
func (r *OrderGormRepository) FindLatestPendingByUserID(ctx context.Context, userID int64) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Where("user_id = ? AND payment_status = ?", userID, model.PaymentStatusPending).
		Order("id desc"))
}

func (r *OrderGormRepository) first(q *gorm.DB) (model.Order, error) {
	var o model.Order
	err := q.First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.updates(r.db.WithContext(ctx).Where("id = ?", orderID), map[string]interface{}{
		"status": status,
	})
}

func (r *OrderGormRepository) UpdatePaymentState(ctx context.Context, orderID int64, paymentStatus model.PaymentStatus, status model.OrderStatus) error {
	return r.updates(r.db.WithContext(ctx).Where("id = ?", orderID), map[string]interface{}{
		"payment_status": paymentStatus,
		"status":         status,
	})
}

func (r *OrderGormRepository) updates(q *gorm.DB, values map[string]interface{}) error {
	res := q.Model(&model.Order{}).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// payment_status=pending の行だけ更新する
func (r *OrderGormRepository) AttachPayment(ctx context.Context, orderID int64, paymentID string, method model.PaymentMethod) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_id":     paymentID,
			"payment_method": method,
			"payment_status": model.PaymentStatusProcessing,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) MarkStockRestored(ctx context.Context, orderID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND stock_restored_at IS NULL", orderID).
		Update("stock_restored_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Order{}, orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Order{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.PaymentStatus != "" {
			q = q.Where("payment_status = ?", f.PaymentStatus)
		}
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		//期間絞り込み
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at <= ?", *f.To)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := filtered().Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// 入金済み注文の合計
func (r *OrderGormRepository) SumPaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_amount)").
		Where("payment_status = ?", model.PaymentStatusPaid).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *OrderGormRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	var items []model.Order
	if err := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}
