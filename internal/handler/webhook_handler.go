package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"powerchip/internal/observability"
	"powerchip/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	uc *usecase.WebhookUsecase
}

func NewWebhookHandler(uc *usecase.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

// Mercado Pagoの通知body。data.id は文字列と数値のどちらでも来る
type webhookBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// 認証なし（署名はusecaseで検証）
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payments/webhook", h.receive)
}

func (h *WebhookHandler) receive(c echo.Context) error {
	n := usecase.WebhookNotification{
		RequestID: c.Request().Header.Get("x-request-id"),
		Signature: c.Request().Header.Get("x-signature"),
	}

	// bodyが壊れていてもqueryで受ける
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		observability.FromContext(c.Request().Context()).Warn("webhook body read failed", zap.Error(err))
	}
	var body webhookBody
	if err == nil && len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		n.Type = body.Type
		n.Action = body.Action
		n.DataID = rawID(body.Data.ID)
	}

	if n.Type == "" {
		n.Type = c.QueryParam("type")
	}
	if n.Type == "" {
		n.Type = c.QueryParam("topic")
	}
	if n.DataID == "" {
		n.DataID = c.QueryParam("data.id")
	}
	if n.DataID == "" {
		n.DataID = c.QueryParam("id")
	}

	h.uc.HandleNotification(c.Request().Context(), n)

	// 結果にかかわらず200
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func rawID(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}
