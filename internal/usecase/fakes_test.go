package usecase_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"powerchip/internal/payment"
	"powerchip/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =====================
// Gateway fake
// =====================

// fakeGateway は作成した支払いを覚えておき、statusはテストから書き換える
type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	created  []payment.CreatePaymentRequest
	statuses map[string]string
	amounts  map[string]decimal.Decimal

	createErr error
	getErr    error
	getCalls  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:   1000,
		statuses: map[string]string{},
		amounts:  map[string]decimal.Decimal{},
	}
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.CreatePaymentRequest) (payment.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return payment.PaymentResult{}, g.createErr
	}
	g.nextID++
	id := strconv.Itoa(g.nextID)
	g.created = append(g.created, req)
	g.statuses[id] = "pending"
	g.amounts[id] = req.Amount

	res := payment.PaymentResult{ID: id, Status: "pending", StatusDetail: "pending_waiting_transfer", Method: req.Method.Method()}
	if _, ok := req.Method.(payment.PixRequest); ok {
		res.QRCode = "00020126580014br.gov.bcb.pix"
		res.QRCodeBase64 = "iVBORw0KGgo="
	}
	return res, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (payment.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.getCalls++
	if g.getErr != nil {
		return payment.PaymentInfo{}, g.getErr
	}
	st, ok := g.statuses[paymentID]
	if !ok {
		return payment.PaymentInfo{}, &payment.GatewayError{StatusCode: 404, Message: "payment not found"}
	}
	return payment.PaymentInfo{
		ID:                paymentID,
		Status:            st,
		TransactionAmount: g.amounts[paymentID],
		NetReceivedAmount: g.amounts[paymentID],
	}, nil
}

func (g *fakeGateway) setStatus(paymentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[paymentID] = status
}

// =====================
// Notifier / cache fakes
// =====================

type captureNotifier struct {
	mu     sync.Mutex
	events []usecase.OrderEvent
}

func (n *captureNotifier) NotifyOrderEvent(_ context.Context, ev usecase.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *captureNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type memStatusCache struct {
	mu          sync.Mutex
	views       map[string]usecase.PaymentStatusView
	invalidated []string
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{views: map[string]usecase.PaymentStatusView{}}
}

func (c *memStatusCache) Get(_ context.Context, id string) (usecase.PaymentStatusView, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[id]
	return v, ok, nil
}

func (c *memStatusCache) Set(_ context.Context, v usecase.PaymentStatusView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[v.PaymentID] = v
	return nil
}

func (c *memStatusCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v is not HTTPError", err) {
		assert.Equal(t, want, he.Status)
	}
}
