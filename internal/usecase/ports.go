package usecase

import (
	"context"
	"time"

	"powerchip/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 注文イベントの種類
const (
	OrderEventPaid          = "order.paid"
	OrderEventPaymentFailed = "order.payment_failed"
	OrderEventRefunded      = "order.refunded"
)

// 決済の確定などを外部へ知らせるイベント
type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       int64               `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        int64               `json:"user_id"`
	PaymentID     string              `json:"payment_id"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	OrderStatus   model.OrderStatus   `json:"order_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// Notifier は通知の送り先（Kafka / ログ）。失敗しても決済状態は戻さない
type Notifier interface {
	NotifyOrderEvent(ctx context.Context, ev OrderEvent) error
}

// ポーリング用の決済状態
type PaymentStatusView struct {
	PaymentID         string              `json:"payment_id"`
	Status            string              `json:"status"`
	StatusDetail      string              `json:"status_detail"`
	Description       string              `json:"description"`
	TransactionAmount decimal.Decimal     `json:"transaction_amount"`
	NetReceivedAmount decimal.Decimal     `json:"net_received_amount"`
	OrderID           int64               `json:"order_id"`
	OrderNumber       string              `json:"order_number"`
	OrderStatus       model.OrderStatus   `json:"order_status"`
	PaymentStatus     model.PaymentStatus `json:"payment_status"`
}

// StatusCache は決済状態の短期キャッシュ。見つからなければ (_, false, nil)
type StatusCache interface {
	Get(ctx context.Context, paymentID string) (PaymentStatusView, bool, error)
	Set(ctx context.Context, view PaymentStatusView) error
	Invalidate(ctx context.Context, paymentID string) error
}

type noopStatusCache struct{}

func (noopStatusCache) Get(context.Context, string) (PaymentStatusView, bool, error) {
	return PaymentStatusView{}, false, nil
}
func (noopStatusCache) Set(context.Context, PaymentStatusView) error { return nil }
func (noopStatusCache) Invalidate(context.Context, string) error     { return nil }

// NoopStatusCache はRedisが無いときに使う
var NoopStatusCache StatusCache = noopStatusCache{}
