package cache

import (
	"context"
	"testing"
	"time"

	"powerchip/internal/domain/model"
	"powerchip/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Get/Set/Delだけ持つメモリ版
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, k string) *redis.StringCmd {
	v, ok := f.data[k]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, k string, v interface{}, ttl time.Duration) *redis.StatusCmd {
	switch b := v.(type) {
	case []byte:
		f.data[k] = string(b)
	case string:
		f.data[k] = b
	}
	f.ttls[k] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStatusCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRedisStatusCache(rdb, 5*time.Second)

	_, ok, err := c.Get(ctx, "123")
	require.NoError(t, err)
	assert.False(t, ok)

	view := usecase.PaymentStatusView{
		PaymentID:         "123",
		Status:            "approved",
		Description:       "Pagamento aprovado",
		TransactionAmount: decimal.RequireFromString("100.00"),
		OrderID:           42,
		PaymentStatus:     model.PaymentStatusPaid,
	}
	require.NoError(t, c.Set(ctx, view))
	assert.Equal(t, 5*time.Second, rdb.ttls["payment:status:123"])

	got, ok, err := c.Get(ctx, "123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "approved", got.Status)
	assert.Equal(t, int64(42), got.OrderID)
	assert.True(t, view.TransactionAmount.Equal(got.TransactionAmount))

	require.NoError(t, c.Invalidate(ctx, "123"))
	_, ok, err = c.Get(ctx, "123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatusCache_ZeroTTLDisablesSet(t *testing.T) {
	rdb := newFakeRedis()
	c := NewRedisStatusCache(rdb, 0)

	require.NoError(t, c.Set(context.Background(), usecase.PaymentStatusView{PaymentID: "1"}))
	assert.Empty(t, rdb.data)
}
