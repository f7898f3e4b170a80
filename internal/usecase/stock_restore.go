package usecase

import (
	"context"
	"errors"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
)

// 注文の明細分だけ在庫を戻す（決済失敗・キャンセル）。
// stock_restored_at に印がつけられたときだけ戻すので、何回呼ばれても1回分になる。
// 戻した場合true
func restoreOrderStock(ctx context.Context, r repo.TxRepos, orderID int64, reason string, adminUserID *int64, now time.Time) (bool, error) {
	marked, err := r.Orders().MarkStockRestored(ctx, orderID, now)
	if err != nil {
		return false, err
	}
	if !marked {
		return false, nil
	}

	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}

	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			// 物理削除された商品は戻し先がない
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return false, err
		}

		oid := orderID
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   it.ProductID,
			Kind:        model.InventoryAdjustmentOrderRestore,
			AdminUserID: adminUserID,
			OrderID:     &oid,
			Delta:       it.Quantity,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}
