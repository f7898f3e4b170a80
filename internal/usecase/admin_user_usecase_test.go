package usecase_test

import (
	"context"
	"testing"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
	"powerchip/internal/testutil"
	"powerchip/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdminUserMocks() (*TxManagerMock, *UserRepoMock, *AuditRepoMock) {
	tx := new(TxManagerMock)
	users := new(UserRepoMock)
	audit := new(AuditRepoMock)

	tx.Repos = &TxReposMock{users: users, auditLogs: audit}
	tx.On("WithinTx", mock.Anything).Return(nil)
	return tx, users, audit
}

// =====================
// List
// =====================

func TestAdminUserUsecase_List_InvalidParams(t *testing.T) {
	uc := usecase.NewAdminUserUsecase(new(TxManagerMock), new(UserRepoMock))

	_, err := uc.List(context.Background(), repo.AdminUserListFilter{Page: -1})
	assertErrContains(t, err, "invalid page")

	_, err = uc.List(context.Background(), repo.AdminUserListFilter{Limit: 101})
	assertErrContains(t, err, "invalid limit")

	_, err = uc.List(context.Background(), repo.AdminUserListFilter{Role: "root"})
	assertErrContains(t, err, "invalid role")
}

func TestAdminUserUsecase_List_Defaults(t *testing.T) {
	users := new(UserRepoMock)
	f := repo.AdminUserListFilter{Page: 1, Limit: 10, Role: "admin", Search: "silva"}
	users.On("ListAdmin", mock.Anything, f).Return([]model.User{{ID: 1, Email: "a@example.com", Role: model.RoleAdmin}}, int64(11), nil)

	uc := usecase.NewAdminUserUsecase(new(TxManagerMock), users)

	out, err := uc.List(context.Background(), repo.AdminUserListFilter{Role: "ADMIN", Search: "silva"})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "admin", out.Users[0].Role)
	assert.Equal(t, 2, out.TotalPages)
	users.AssertExpectations(t)
}

// =====================
// UpdateRole
// =====================

func TestAdminUserUsecase_UpdateRole_InvalidRole(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	uc := usecase.NewAdminUserUsecase(tx, users)

	_, err := uc.UpdateRole(context.Background(), 1, 2, usecase.AdminUpdateUserRoleInput{Role: "superuser"})
	assertErrContains(t, err, "invalid role")
	assertHTTPStatus(t, err, 400)

	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_UpdateRole_Self_BadRequest(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	uc := usecase.NewAdminUserUsecase(tx, users)

	_, err := uc.UpdateRole(context.Background(), 7, 7, usecase.AdminUpdateUserRoleInput{Role: "customer"})
	assertErrContains(t, err, "cannot change your own role")
	assertHTTPStatus(t, err, 400)

	users.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_UpdateRole_NotFound(t *testing.T) {
	tx, users, _ := newAdminUserMocks()
	users.On("FindByID", mock.Anything, int64(9)).Return(model.User{}, repo.ErrNotFound)

	uc := usecase.NewAdminUserUsecase(tx, users)

	_, err := uc.UpdateRole(context.Background(), 1, 9, usecase.AdminUpdateUserRoleInput{Role: "admin"})
	assertHTTPStatus(t, err, 404)
}

func TestAdminUserUsecase_UpdateRole_WritesAudit(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	users.On("FindByID", mock.Anything, int64(2)).Return(model.User{ID: 2, Role: model.RoleCustomer}, nil)
	users.On("UpdateRole", mock.Anything, int64(2), model.RoleAdmin).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 1 &&
			l.Action == model.AuditActionUpdateUserRole &&
			l.ResourceType == model.AuditResourceUser &&
			l.ResourceID == 2 &&
			l.BeforeJSON == `{"role":"customer"}` &&
			l.AfterJSON == `{"role":"admin"}`
	})).Return(nil)

	uc := usecase.NewAdminUserUsecase(tx, users)

	out, err := uc.UpdateRole(context.Background(), 1, 2, usecase.AdminUpdateUserRoleInput{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", out.Role)

	users.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAdminUserUsecase_UpdateRole_SameRole_NoAudit(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	users.On("FindByID", mock.Anything, int64(2)).Return(model.User{ID: 2, Role: model.RoleAdmin}, nil)

	uc := usecase.NewAdminUserUsecase(tx, users)

	_, err := uc.UpdateRole(context.Background(), 1, 2, usecase.AdminUpdateUserRoleInput{Role: "admin"})
	require.NoError(t, err)
	users.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// Delete
// =====================

func TestAdminUserUsecase_Delete_Self_BadRequest(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	uc := usecase.NewAdminUserUsecase(tx, users)

	err := uc.Delete(context.Background(), 7, 7)
	assertErrContains(t, err, "cannot delete your own account")
	assertHTTPStatus(t, err, 400)

	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_Delete_HasOrders_BadRequest(t *testing.T) {
	tx, users, audit := newAdminUserMocks()
	users.On("FindByID", mock.Anything, int64(3)).Return(model.User{ID: 3, Role: model.RoleCustomer}, nil)
	users.On("HasOrders", mock.Anything, int64(3)).Return(true, nil)

	uc := usecase.NewAdminUserUsecase(tx, users)

	err := uc.Delete(context.Background(), 1, 3)
	assertErrContains(t, err, "cannot delete user with orders")
	assertHTTPStatus(t, err, 400)

	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUserUsecase_Delete_NotFound(t *testing.T) {
	tx, users, _ := newAdminUserMocks()
	users.On("FindByID", mock.Anything, int64(3)).Return(model.User{}, repo.ErrNotFound)

	uc := usecase.NewAdminUserUsecase(tx, users)

	err := uc.Delete(context.Background(), 1, 3)
	assertHTTPStatus(t, err, 404)
}

// =====================
// sqlite
// =====================

func TestAdminUserUsecase_Lifecycle_SQLite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testutil.SeedProduct(t, h.db, "SSD", "300.00", 10)
	admin := testutil.SeedUser(t, h.db, "admin@example.com", model.RoleAdmin)
	buyer := testutil.SeedUser(t, h.db, "buyer@example.com", model.RoleCustomer)
	idle := testutil.SeedUser(t, h.db, "idle@example.com", model.RoleCustomer)

	h.checkout(t, buyer.ID, map[int64]int64{p.ID: 1})
	_, err := h.cart.AddToCart(ctx, idle.ID, usecase.AddCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	out, err := h.users.List(ctx, repo.AdminUserListFilter{Role: "customer"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	out, err = h.users.List(ctx, repo.AdminUserListFilter{Search: "IDLE@"})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, idle.ID, out.Users[0].ID)

	got, err := h.users.UpdateRole(ctx, admin.ID, buyer.ID, usecase.AdminUpdateUserRoleInput{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)

	// 注文のあるユーザーは消せない
	err = h.users.Delete(ctx, admin.ID, buyer.ID)
	assertHTTPStatus(t, err, 400)

	require.NoError(t, h.users.Delete(ctx, admin.ID, idle.ID))
	_, err = h.users.Get(ctx, idle.ID)
	assertHTTPStatus(t, err, 404)

	var carts int64
	require.NoError(t, h.db.Model(&model.CartItem{}).Where("user_id = ?", idle.ID).Count(&carts).Error)
	assert.Zero(t, carts)

	logs, err := h.admin.ListAuditLogs(ctx, repo.AuditLogFilter{ResourceType: model.AuditResourceUser})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []model.AuditAction{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []model.AuditAction{model.AuditActionUpdateUserRole, model.AuditActionDeleteUser}, actions)
}
