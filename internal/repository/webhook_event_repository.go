package repository

import (
	"context"

	"powerchip/internal/domain/model"
)

// Webhookの重複排除
type WebhookEventRepository interface {
	//未処理なら保存してtrue、処理済みならfalse
	Record(ctx context.Context, ev model.ProcessedWebhookEvent) (bool, error)
}
