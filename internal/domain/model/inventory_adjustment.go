package model

import "time"

type InventoryAdjustmentKind string

const (
	//管理者による在庫の再設定
	InventoryAdjustmentAdminSet InventoryAdjustmentKind = "ADMIN_SET"
	//決済失敗・キャンセルによる在庫戻し
	InventoryAdjustmentOrderRestore InventoryAdjustmentKind = "ORDER_RESTORE"
)

// 在庫調整の履歴（差分）
type InventoryAdjustment struct {
	ID          int64                   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64                   `gorm:"not null;index" json:"product_id"`
	Kind        InventoryAdjustmentKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	AdminUserID *int64                  `gorm:"index" json:"admin_user_id,omitempty"`
	OrderID     *int64                  `gorm:"index" json:"order_id,omitempty"`
	Delta       int64                   `gorm:"not null" json:"delta"`
	Reason      string                  `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time               `gorm:"not null;autoCreateTime" json:"created_at"`
}
