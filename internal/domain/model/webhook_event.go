package model

import "time"

// 処理済みのWebhook（payment_id:status）
type ProcessedWebhookEvent struct {
	EventKey    string    `gorm:"primaryKey;type:varchar(128)" json:"event_key"`
	PaymentID   string    `gorm:"type:varchar(64);not null;index" json:"payment_id"`
	OrderID     int64     `gorm:"not null;index" json:"order_id"`
	Status      string    `gorm:"type:varchar(32);not null" json:"status"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}

func WebhookEventKey(paymentID string, gatewayStatus string) string {
	return paymentID + ":" + gatewayStatus
}
