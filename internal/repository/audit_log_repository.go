package repository

import (
	"context"

	"powerchip/internal/domain/model"
)

// 監査ログの絞り込み条件（管理画面）
type AuditLogFilter struct {
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   *int64
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
