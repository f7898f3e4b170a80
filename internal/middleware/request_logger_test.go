package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"powerchip/internal/middleware"
	"powerchip/internal/observability"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(middleware.RequestLogger(zap.New(core)))

	e.GET("/items/:id", func(c echo.Context) error {
		// handler側でもrequest_id付きのロガーが取れる
		observability.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/9", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(middleware.HeaderRequestID))

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, en := range entries {
		assert.Equal(t, "req-123", en.ContextMap()["request_id"])
	}
	assert.Equal(t, "/items/:id", entries[1].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusNoContent), entries[1].ContextMap()["status"])
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(middleware.RequestLogger(zap.New(core)))

	e.GET("/bad", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})
	e.GET("/boom", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	})

	for _, p := range []string{"/bad", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	// IDが無ければ採番される
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}
