package repository

import (
	"context"
	"time"

	"powerchip/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	UserID        *int64
	From          *time.Time
	To            *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (model.Order, error)
	FindLatestPendingByUserID(ctx context.Context, userID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentState(ctx context.Context, orderID int64, paymentStatus model.PaymentStatus, status model.OrderStatus) error

	//payment_statusがpendingのときだけ決済情報を保存する（二重課金防止）
	AttachPayment(ctx context.Context, orderID int64, paymentID string, method model.PaymentMethod) (bool, error)

	//stock_restored_atが空のときだけ印をつける（在庫戻しは1回だけ）
	MarkStockRestored(ctx context.Context, orderID int64, at time.Time) (bool, error)

	Delete(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Count(ctx context.Context) (int64, error)
	SumPaidRevenue(ctx context.Context) (decimal.Decimal, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
}
