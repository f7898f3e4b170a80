package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	SKU         string `gorm:"column:sku;type:varchar(64)" json:"sku"`
	//価格（小数の通貨単位、R$）
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	//在庫はマイナスにならない
	StockQuantity int64          `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CategoryID    *int64         `gorm:"index" json:"category_id"`
	ImageURL      string         `gorm:"type:text" json:"image_url"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
