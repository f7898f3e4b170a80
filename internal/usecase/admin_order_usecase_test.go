package usecase_test

import (
	"context"
	"testing"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"
	"powerchip/internal/payment"
	"powerchip/internal/testutil"
	"powerchip/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// List tests
// =====================

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), new(OrderRepoMock), new(OrderItemRepoMock), new(AuditRepoMock), nil)

	out, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: -1, Limit: 20})
	assert.Empty(t, out.Orders)
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidLimit(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), new(OrderRepoMock), new(OrderItemRepoMock), new(AuditRepoMock), nil)

	out, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 101})
	assert.Empty(t, out.Orders)
	assertErrContains(t, err, "invalid limit")
}

func TestAdminOrderUsecase_List_Success_CallsItemsPerOrder(t *testing.T) {
	ctx := context.Background()

	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)

	f := repo.AdminOrderListFilter{Page: 1, Limit: 20}
	orders := []model.Order{
		{ID: 10, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending},
		{ID: 11, Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPaid},
	}

	ordersRepo.On("ListAdmin", mock.Anything, f).Return(orders, int64(2), nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(11)).Return([]model.OrderItem{}, nil)

	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), ordersRepo, itemsRepo, new(AuditRepoMock), nil)

	out, err := uc.List(ctx, f)
	assert.NoError(t, err)
	assert.Len(t, out.Orders, 2)
	assert.Equal(t, int64(2), out.Total)
	assert.Equal(t, 1, out.TotalPages)

	ordersRepo.AssertExpectations(t)
	itemsRepo.AssertExpectations(t)
}

// =====================
// UpdateStatus tests
// =====================

func newAdminStatusMocks(o model.Order) (*TxManagerMock, *OrderRepoMock, *AuditRepoMock) {
	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	audit := new(AuditRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo, auditLogs: audit}
	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	return tx, ordersRepo, audit
}

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), new(OrderRepoMock), new(OrderItemRepoMock), new(AuditRepoMock), nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "refunded"})
	assertErrContains(t, err, "invalid status")
}

func TestAdminOrderUsecase_UpdateStatus_ShipUnpaid_Conflict(t *testing.T) {
	o := model.Order{ID: 10, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusProcessing}
	tx, ordersRepo, audit := newAdminStatusMocks(o)

	uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "shipped"})
	assertErrContains(t, err, "order not paid")
	assertHTTPStatus(t, err, 409)

	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_FinalState_Conflict(t *testing.T) {
	for _, st := range []model.OrderStatus{model.OrderStatusCancelled, model.OrderStatusDelivered, model.OrderStatusRefunded} {
		t.Run(string(st), func(t *testing.T) {
			o := model.Order{ID: 10, Status: st, PaymentStatus: model.PaymentStatusPaid}
			tx, ordersRepo, audit := newAdminStatusMocks(o)

			uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

			err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "processing"})
			assertHTTPStatus(t, err, 409)
		})
	}
}

func TestAdminOrderUsecase_UpdateStatus_SameStatus_NoOp(t *testing.T) {
	o := model.Order{ID: 10, Status: model.OrderStatusShipped, PaymentStatus: model.PaymentStatusPaid}
	tx, ordersRepo, audit := newAdminStatusMocks(o)

	uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "SHIPPED"})
	assert.NoError(t, err)
	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_ShipPaid_WritesAudit(t *testing.T) {
	o := model.Order{ID: 10, Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPaid}
	tx, ordersRepo, audit := newAdminStatusMocks(o)

	ordersRepo.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusShipped).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 1 &&
			l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceType == model.AuditResourceOrder &&
			l.ResourceID == 10
	})).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "shipped"})
	assert.NoError(t, err)

	tx.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_PaidRegression_Conflict(t *testing.T) {
	cases := []struct {
		from model.OrderStatus
		to   string
	}{
		{model.OrderStatusConfirmed, "pending"},
		{model.OrderStatusProcessing, "pending"},
		{model.OrderStatusShipped, "processing"},
		{model.OrderStatusShipped, "pending"},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+tc.to, func(t *testing.T) {
			o := model.Order{ID: 10, Status: tc.from, PaymentStatus: model.PaymentStatusPaid}
			tx, ordersRepo, audit := newAdminStatusMocks(o)

			uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

			err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: tc.to})
			assertErrContains(t, err, "paid order cannot move back")
			assertHTTPStatus(t, err, 409)

			ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			ordersRepo.AssertNotCalled(t, "UpdatePaymentState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminOrderUsecase_UpdateStatus_PaidForward_OK(t *testing.T) {
	o := model.Order{ID: 10, Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPaid}
	tx, ordersRepo, audit := newAdminStatusMocks(o)

	ordersRepo.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusProcessing).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, ordersRepo, new(OrderItemRepoMock), audit, nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, usecase.AdminUpdateOrderStatusInput{Status: "processing"})
	assert.NoError(t, err)
	ordersRepo.AssertExpectations(t)
}

// =====================
// sqlite
// =====================

// 管理者キャンセルで在庫が戻り、決済もキャンセル扱いになる
func TestAdminOrderUsecase_Cancel_RestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testutil.SeedProduct(t, h.db, "SSD", "300.00", 10)
	u := testutil.SeedUser(t, h.db, "u@example.com", model.RoleCustomer)
	admin := testutil.SeedUser(t, h.db, "admin@example.com", model.RoleAdmin)

	order := h.checkout(t, u.ID, map[int64]int64{p.ID: 4})
	res := h.pay(t, u.ID, order.ID, payment.PixRequest{})
	assert.Equal(t, int64(6), testutil.ReloadProduct(t, h.db, p.ID).StockQuantity)

	require.NoError(t, h.admin.UpdateStatus(ctx, admin.ID, order.ID, usecase.AdminUpdateOrderStatusInput{Status: "cancelled"}))

	o := testutil.ReloadOrder(t, h.db, order.ID)
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
	assert.Equal(t, model.PaymentStatusCancelled, o.PaymentStatus)
	assert.Equal(t, int64(10), testutil.ReloadProduct(t, h.db, p.ID).StockQuantity)
	assert.Contains(t, h.cache.invalidated, res.ID)

	// 後から届いた rejected は終端からの遷移なので何もしない
	h.gateway.setStatus(res.ID, "rejected")
	assert.Equal(t, usecase.WebhookInvalidTransition, h.notify(res.ID))
	assert.Equal(t, int64(10), testutil.ReloadProduct(t, h.db, p.ID).StockQuantity)

	logs, err := h.admin.ListAuditLogs(ctx, repo.AuditLogFilter{Action: model.AuditActionUpdateOrderStatus})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, admin.ID, logs[0].ActorUserID)
	assert.Contains(t, logs[0].AfterJSON, `"cancelled"`)

	// キャンセル済みは削除できる
	require.NoError(t, h.admin.Delete(ctx, admin.ID, order.ID))
	_, err = h.admin.Get(ctx, order.ID)
	assertHTTPStatus(t, err, 404)
}

func TestAdminOrderUsecase_ShipUnpaid_Conflict_SQLite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testutil.SeedProduct(t, h.db, "SSD", "300.00", 10)
	u := testutil.SeedUser(t, h.db, "u@example.com", model.RoleCustomer)
	admin := testutil.SeedUser(t, h.db, "admin@example.com", model.RoleAdmin)
	order := h.checkout(t, u.ID, map[int64]int64{p.ID: 1})

	err := h.admin.UpdateStatus(ctx, admin.ID, order.ID, usecase.AdminUpdateOrderStatusInput{Status: "shipped"})
	assertErrContains(t, err, "order not paid")

	err = h.admin.Delete(ctx, admin.ID, order.ID)
	assertHTTPStatus(t, err, 409)

	res := h.pay(t, u.ID, order.ID, payment.PixRequest{})
	h.gateway.setStatus(res.ID, "approved")
	require.Equal(t, usecase.WebhookApplied, h.notify(res.ID))

	require.NoError(t, h.admin.UpdateStatus(ctx, admin.ID, order.ID, usecase.AdminUpdateOrderStatusInput{Status: "shipped"}))
	require.NoError(t, h.admin.UpdateStatus(ctx, admin.ID, order.ID, usecase.AdminUpdateOrderStatusInput{Status: "delivered"}))

	err = h.admin.UpdateStatus(ctx, admin.ID, order.ID, usecase.AdminUpdateOrderStatusInput{Status: "cancelled"})
	assertHTTPStatus(t, err, 409)
}

func TestAdminStatsUsecase_Dashboard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p1 := testutil.SeedProduct(t, h.db, "SSD", "100.00", 10)
	testutil.SeedProduct(t, h.db, "HD", "50.00", 10)
	u := testutil.SeedUser(t, h.db, "u@example.com", model.RoleCustomer)

	paid := h.checkout(t, u.ID, map[int64]int64{p1.ID: 2})
	res := h.pay(t, u.ID, paid.ID, payment.PixRequest{})
	h.gateway.setStatus(res.ID, "approved")
	require.Equal(t, usecase.WebhookApplied, h.notify(res.ID))

	h.checkout(t, u.ID, map[int64]int64{p1.ID: 1})

	out, err := h.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.TotalProducts)
	assert.Equal(t, int64(2), out.TotalOrders)
	assert.Equal(t, int64(1), out.TotalUsers)
	assert.True(t, out.TotalRevenue.Equal(decimal.RequireFromString("200.00")), out.TotalRevenue.String())
	assert.Len(t, out.RecentOrders, 2)
}

func TestAdminStatsUsecase_Dashboard_Error(t *testing.T) {
	products := new(ProductRepoMock)
	orders := new(OrderRepoMock)
	users := new(UserRepoMock)

	products.On("Count", mock.Anything).Return(int64(0), assert.AnError)
	orders.On("Count", mock.Anything).Return(int64(0), nil).Maybe()
	orders.On("SumPaidRevenue", mock.Anything).Return(decimal.Zero, nil).Maybe()
	orders.On("ListRecent", mock.Anything, 10).Return([]model.Order{}, nil).Maybe()
	users.On("Count", mock.Anything).Return(int64(0), nil).Maybe()

	uc := usecase.NewAdminStatsUsecase(products, orders, users)
	_, err := uc.Dashboard(context.Background())
	assertErrContains(t, err, "db error")
}
