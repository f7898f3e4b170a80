package handler

import (
	"net/http"
	"strings"

	"powerchip/internal/config"
	"powerchip/internal/domain/model"
	"powerchip/internal/middleware"
	"powerchip/internal/payment"
	"powerchip/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// カードはフロントでトークン化する。card_number / security_code が来たら拒否
type PaymentCreateRequest struct {
	OrderID         int64  `json:"order_id"`
	PaymentMethod   string `json:"payment_method"`
	CardToken       string `json:"card_token"`
	Installments    int    `json:"installments"`
	PaymentMethodID string `json:"payment_method_id"`
	IssuerID        string `json:"issuer_id"`
	TaxID           string `json:"tax_id"`

	CardNumber   string `json:"card_number"`
	SecurityCode string `json:"security_code"`
}

func (r PaymentCreateRequest) methodRequest() (payment.MethodRequest, bool) {
	switch model.PaymentMethod(strings.ToLower(strings.TrimSpace(r.PaymentMethod))) {
	case model.PaymentMethodPix:
		return payment.PixRequest{}, true
	case model.PaymentMethodCreditCard:
		return payment.CreditCardRequest{
			CardToken:       r.CardToken,
			Installments:    r.Installments,
			PaymentMethodID: r.PaymentMethodID,
			IssuerID:        r.IssuerID,
		}, true
	case model.PaymentMethodDebitCard:
		return payment.DebitCardRequest{
			CardToken:       r.CardToken,
			PaymentMethodID: r.PaymentMethodID,
		}, true
	case model.PaymentMethodBoleto:
		return payment.BoletoRequest{TaxID: r.TaxID}, true
	default:
		return nil, false
	}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")

	auth := middleware.AuthJWT(cfg)
	g.POST("/create", h.create, auth)
	g.GET("/status/:paymentId", h.status, auth)
}

func (h *PaymentHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PaymentCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.CardNumber != "" || req.SecurityCode != "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "raw card data is not accepted, send card_token"})
	}

	method, ok := req.methodRequest()
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment_method"})
	}

	out, err := h.uc.CreatePayment(c.Request().Context(), userID, usecase.CreatePaymentInput{
		OrderID: req.OrderID,
		Method:  method,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *PaymentHandler) status(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	paymentID := strings.TrimSpace(c.Param("paymentId"))
	if paymentID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment id"})
	}

	out, err := h.uc.GetPaymentStatus(c.Request().Context(), actor, paymentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
