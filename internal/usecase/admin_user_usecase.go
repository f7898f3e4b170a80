package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
)

type AdminUserUsecase struct {
	tx    repo.TransactionManager
	users repo.UserRepository
	now   func() time.Time
}

func NewAdminUserUsecase(tx repo.TransactionManager, users repo.UserRepository) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, users: users, now: time.Now}
}

// 管理画面向けのユーザー（パスワードハッシュは出さない）
type AdminUserOutput struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUserListOutput struct {
	Users      []AdminUserOutput `json:"users"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type AdminUpdateUserRoleInput struct {
	Role string
}

func toAdminUserOutput(u model.User) AdminUserOutput {
	return AdminUserOutput{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Document:  u.Document,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func parseRole(s string) (model.Role, bool) {
	switch r := model.Role(strings.ToLower(strings.TrimSpace(s))); r {
	case model.RoleAdmin, model.RoleCustomer:
		return r, true
	}
	return "", false
}

// ユーザー一覧（role / 検索語で絞り込み）
func (u *AdminUserUsecase) List(ctx context.Context, f repo.AdminUserListFilter) (AdminUserListOutput, error) {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 10
	}
	if f.Page < 1 {
		return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Role != "" {
		r, ok := parseRole(f.Role)
		if !ok {
			return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
		}
		f.Role = string(r)
	}

	users, total, err := u.users.ListAdmin(ctx, f)
	if err != nil {
		return AdminUserListOutput{}, errDB
	}

	outs := make([]AdminUserOutput, 0, len(users))
	for _, us := range users {
		outs = append(outs, toAdminUserOutput(us))
	}
	return AdminUserListOutput{
		Users:      outs,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages(total, f.Limit),
	}, nil
}

func (u *AdminUserUsecase) Get(ctx context.Context, userID int64) (AdminUserOutput, error) {
	if userID <= 0 {
		return AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	us, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return AdminUserOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return AdminUserOutput{}, errDB
	}
	return toAdminUserOutput(us), nil
}

// 権限変更。自分自身の権限は変えられない（管理者が0人になるのを防ぐ）
func (u *AdminUserUsecase) UpdateRole(ctx context.Context, actorAdminUserID int64, userID int64, in AdminUpdateUserRoleInput) (AdminUserOutput, error) {
	if actorAdminUserID <= 0 {
		return AdminUserOutput{}, errUnauthorized
	}
	if userID <= 0 {
		return AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	role, ok := parseRole(in.Role)
	if !ok {
		return AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role: use admin or customer")
	}
	if userID == actorAdminUserID {
		return AdminUserOutput{}, NewHTTPError(http.StatusBadRequest, "cannot change your own role")
	}

	var out AdminUserOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		us, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return errDB
		}

		// 同じなら何もしない
		if us.Role == role {
			out = toAdminUserOutput(us)
			return nil
		}

		if err := r.Users().UpdateRole(ctx, userID, role); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "user not found")
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateUserRole,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   toJSON(map[string]string{"role": string(us.Role)}),
			AfterJSON:    toJSON(map[string]string{"role": string(role)}),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}

		us.Role = role
		out = toAdminUserOutput(us)
		return nil
	})
	if err != nil {
		return AdminUserOutput{}, err
	}
	return out, nil
}

// ユーザー削除。自分自身と注文のあるユーザーは消せない
func (u *AdminUserUsecase) Delete(ctx context.Context, actorAdminUserID int64, userID int64) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized
	}
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if userID == actorAdminUserID {
		return NewHTTPError(http.StatusBadRequest, "cannot delete your own account")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		us, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return errDB
		}

		has, err := r.Users().HasOrders(ctx, userID)
		if err != nil {
			return errDB
		}
		if has {
			return NewHTTPError(http.StatusBadRequest, "cannot delete user with orders")
		}

		// カートは一緒に消す
		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return errDB
		}
		if err := r.Users().Delete(ctx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "user not found")
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionDeleteUser,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   toJSON(map[string]string{"email": us.Email, "role": string(us.Role)}),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}
		return nil
	})
}
