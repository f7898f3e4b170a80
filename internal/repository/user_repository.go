package repository

import (
	"context"

	"powerchip/internal/domain/model"
)

// 管理画面のユーザー一覧条件
type AdminUserListFilter struct {
	Page  int
	Limit int
	Role  string
	// name / email の部分一致
	Search string
}

// 保存・取得を約束（見つからない場合はErrNotFound）
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Count(ctx context.Context) (int64, error)

	ListAdmin(ctx context.Context, f AdminUserListFilter) ([]model.User, int64, error)
	UpdateRole(ctx context.Context, userID int64, role model.Role) error
	Delete(ctx context.Context, userID int64) error
	HasOrders(ctx context.Context, userID int64) (bool, error)
}
