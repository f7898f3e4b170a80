package usecase_test

import (
	"context"
	"testing"

	"powerchip/internal/domain/model"
	infra "powerchip/internal/infra/repository"
	"powerchip/internal/payment"
	"powerchip/internal/testutil"
	"powerchip/internal/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sqlite上で本物のrepoを組み立てたusecase一式
type harness struct {
	db       *gorm.DB
	gateway  *fakeGateway
	notifier *captureNotifier
	cache    *memStatusCache

	cart     *usecase.CartUsecase
	orders   *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
	webhooks *usecase.WebhookUsecase
	admin    *usecase.AdminOrderUsecase
	users    *usecase.AdminUserUsecase
	stats    *usecase.AdminStatsUsecase
	products *usecase.ProductUsecase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb := testutil.OpenSQLite(t)
	h := &harness{
		db:       gdb,
		gateway:  newFakeGateway(),
		notifier: &captureNotifier{},
		cache:    newMemStatusCache(),
	}

	tx := infra.NewTxManagerGorm(gdb)
	productRepo := infra.NewProductGormRepository(gdb)
	orderRepo := infra.NewOrderGormRepository(gdb)
	orderItemRepo := infra.NewOrderItemGormRepository(gdb)
	userRepo := infra.NewUserGormRepository(gdb)

	h.cart = usecase.NewCartUsecase(infra.NewCartGormRepository(gdb), productRepo)
	h.orders = usecase.NewOrderUsecase(tx, orderRepo, orderItemRepo)
	h.payments = usecase.NewPaymentUsecase(orderRepo, userRepo, h.gateway, h.cache, zap.NewNop())
	h.webhooks = usecase.NewWebhookUsecase(tx, orderRepo, h.gateway, h.notifier, h.cache, "", zap.NewNop())
	h.admin = usecase.NewAdminOrderUsecase(tx, orderRepo, orderItemRepo, infra.NewAuditLogGormRepository(gdb), h.cache)
	h.users = usecase.NewAdminUserUsecase(tx, userRepo)
	h.stats = usecase.NewAdminStatsUsecase(productRepo, orderRepo, userRepo)
	h.products = usecase.NewProductUsecase(productRepo, infra.NewCategoryGormRepository(gdb), tx)
	return h
}

// カートに入れて注文まで進める
func (h *harness) checkout(t *testing.T, userID int64, lines map[int64]int64) usecase.OrderOutput {
	t.Helper()
	ctx := context.Background()

	for productID, qty := range lines {
		_, err := h.cart.AddToCart(ctx, userID, usecase.AddCartInput{ProductID: productID, Quantity: qty})
		require.NoError(t, err)
	}
	out, err := h.orders.CreateOrder(ctx, userID, usecase.CreateOrderInput{PaymentMethod: model.PaymentMethodPix})
	require.NoError(t, err)
	return out
}

func (h *harness) pay(t *testing.T, userID, orderID int64, m payment.MethodRequest) usecase.CreatePaymentOutput {
	t.Helper()

	out, err := h.payments.CreatePayment(context.Background(), userID, usecase.CreatePaymentInput{OrderID: orderID, Method: m})
	require.NoError(t, err)
	return out
}

func (h *harness) notify(paymentID string) string {
	return h.webhooks.HandleNotification(context.Background(), usecase.WebhookNotification{
		Type:   "payment",
		Action: "payment.updated",
		DataID: paymentID,
	})
}
