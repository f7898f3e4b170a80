package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細（user_id, product_id）で一意
// 追加時点の価格を保存するが、表示と注文は現在価格を使う
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;uniqueIndex:ux_cart_items_user_product" json:"user_id"`
	ProductID int64           `gorm:"not null;uniqueIndex:ux_cart_items_user_product;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 一覧表示用（現在の商品情報をjoin）
type CartLine struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StockQuantity int64           `json:"stock_quantity"`
	Active        bool            `json:"active"`
}
