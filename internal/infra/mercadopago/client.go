// Package mercadopago は Mercado Pago の REST API（/v1/payments）を payment.Gateway として実装する。
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"powerchip/internal/observability"
	"powerchip/internal/payment"
	"powerchip/internal/validator"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	DefaultTimeout = 5 * time.Second

	methodIDPix    = "pix"
	methodIDBoleto = "bolbradesco"
)

// HTTPDoer は *http.Client を差し替えるための約束（テスト用）。
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL         string
	accessToken     string
	notificationURL string
	timeout         time.Duration
	http            HTTPDoer
	logger          *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithNotificationURL(u string) Option {
	return func(c *Client) { c.notificationURL = u }
}

func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		accessToken: accessToken,
		timeout:     DefaultTimeout,
		http:        &http.Client{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ payment.Gateway = (*Client)(nil)

// 支払いを作成する。方法ごとにpayment_method_idとtoken等を切り替える
func (c *Client) CreatePayment(ctx context.Context, req payment.CreatePaymentRequest) (payment.PaymentResult, error) {
	if req.Method == nil {
		return payment.PaymentResult{}, fmt.Errorf("%w: method required", payment.ErrInvalidRequest)
	}
	if err := req.Method.Validate(); err != nil {
		return payment.PaymentResult{}, err
	}

	body := paymentRequest{
		TransactionAmount: json.Number(req.Amount.StringFixed(2)),
		Description:       req.Description,
		ExternalReference: strconv.FormatInt(req.OrderID, 10),
		NotificationURL:   c.notificationURL,
		Payer: payer{
			Email:     req.Payer.Email,
			FirstName: req.Payer.FirstName,
			LastName:  req.Payer.LastName,
		},
	}
	if req.Payer.DocNumber != "" {
		body.Payer.Identification = &identification{Type: req.Payer.DocType, Number: req.Payer.DocNumber}
	}

	switch m := req.Method.(type) {
	case payment.PixRequest:
		body.PaymentMethodID = methodIDPix
	case payment.CreditCardRequest:
		body.Token = m.CardToken
		body.PaymentMethodID = m.PaymentMethodID
		body.IssuerID = m.IssuerID
		body.Installments = m.Installments
		if body.Installments == 0 {
			body.Installments = 1
		}
	case payment.DebitCardRequest:
		body.Token = m.CardToken
		body.PaymentMethodID = m.PaymentMethodID
		body.Installments = 1
	case payment.BoletoRequest:
		body.PaymentMethodID = methodIDBoleto
		doc := validator.OnlyDigits(m.TaxID)
		body.Payer.Identification = &identification{Type: validator.TaxIDType(doc), Number: doc}
	default:
		return payment.PaymentResult{}, fmt.Errorf("%w: unsupported method %T", payment.ErrInvalidRequest, req.Method)
	}

	var resp paymentResponse
	if err := c.do(ctx, "create_payment", http.MethodPost, "/v1/payments", req.IdempotencyKey, body, &resp); err != nil {
		return payment.PaymentResult{}, err
	}

	out := payment.PaymentResult{
		ID:           resp.ID.String(),
		Status:       resp.Status,
		StatusDetail: resp.StatusDetail,
		Method:       req.Method.Method(),
		ExpiresAt:    resp.DateOfExpiration,
	}
	switch req.Method.(type) {
	case payment.PixRequest:
		out.QRCode = resp.PointOfInteraction.TransactionData.QRCode
		out.QRCodeBase64 = resp.PointOfInteraction.TransactionData.QRCodeBase64
		out.TicketURL = resp.PointOfInteraction.TransactionData.TicketURL
	case payment.BoletoRequest:
		out.TicketURL = resp.TransactionDetails.ExternalResourceURL
		out.BarCode = resp.Barcode.Content
	}
	if out.ID == "" {
		return payment.PaymentResult{}, &payment.GatewayError{StatusCode: http.StatusOK, Message: "response without payment id"}
	}
	return out, nil
}

// 支払いの現在の状態を取得する（Webhookとポーリングの正）
func (c *Client) GetPayment(ctx context.Context, paymentID string) (payment.PaymentInfo, error) {
	if strings.TrimSpace(paymentID) == "" {
		return payment.PaymentInfo{}, fmt.Errorf("%w: payment id required", payment.ErrInvalidRequest)
	}
	// IDは数字のみ（webhookのdata.idがそのまま来る）
	if !isNumericID(paymentID) {
		return payment.PaymentInfo{}, fmt.Errorf("%w: malformed payment id", payment.ErrInvalidRequest)
	}

	var resp paymentResponse
	if err := c.do(ctx, "get_payment", http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), "", nil, &resp); err != nil {
		return payment.PaymentInfo{}, err
	}

	return payment.PaymentInfo{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
		NetReceivedAmount: resp.TransactionDetails.NetReceivedAmount,
	}, nil
}

func isNumericID(id string) bool {
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return id != ""
}

func (c *Client) do(ctx context.Context, op, method, path, idempotencyKey string, in any, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		observability.GatewayDuration.WithLabelValues(op, result).Observe(float64(time.Since(start).Milliseconds()))
	}()

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("mercadopago: marshal: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("mercadopago: new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "timeout"
		}
		c.logger.Error("mercadopago request failed", zap.String("op", op), zap.String("reason", msg), zap.Error(err))
		return &payment.GatewayError{StatusCode: 0, Message: msg, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return &payment.GatewayError{StatusCode: res.StatusCode, Message: "read body", Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := http.StatusText(res.StatusCode)
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Message != "" {
			msg = er.Message
		}
		c.logger.Error("mercadopago returned error",
			zap.String("op", op),
			zap.Int("status", res.StatusCode),
			zap.String("message", msg),
			zap.ByteString("body", raw),
		)
		return &payment.GatewayError{StatusCode: res.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &payment.GatewayError{StatusCode: res.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}
