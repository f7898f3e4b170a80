// Package payment は決済ゲートウェイとの境界（ポートと型）を定義する。
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"powerchip/internal/domain/model"

	"github.com/shopspring/decimal"
)

// Gateway は決済プロバイダ（Mercado Pago）のアダプタが満たす約束。
type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (PaymentInfo, error)
}

// 支払者
type Payer struct {
	Email     string
	FirstName string
	LastName  string
	// CPF / CNPJ
	DocType   string
	DocNumber string
}

type CreatePaymentRequest struct {
	OrderID     int64
	Amount      decimal.Decimal
	Description string
	Payer       Payer
	Method      MethodRequest
	//ゲートウェイ側の二重作成防止
	IdempotencyKey string
}

// MethodRequest は支払い方法ごとの入力。PixRequest / CreditCardRequest / DebitCardRequest / BoletoRequest のどれか。
type MethodRequest interface {
	Method() model.PaymentMethod
	Validate() error
}

type PixRequest struct{}

func (PixRequest) Method() model.PaymentMethod { return model.PaymentMethodPix }
func (PixRequest) Validate() error             { return nil }

// カードはトークン化済みの参照だけを受け取る（カード番号は受け取らない）
type CreditCardRequest struct {
	CardToken       string
	Installments    int
	PaymentMethodID string // visa, master ...
	IssuerID        string
}

func (CreditCardRequest) Method() model.PaymentMethod { return model.PaymentMethodCreditCard }

func (r CreditCardRequest) Validate() error {
	if strings.TrimSpace(r.CardToken) == "" {
		return ErrCardTokenRequired
	}
	// 0は未指定（一括払い扱い）
	if r.Installments < 0 || r.Installments > 12 {
		return fmt.Errorf("%w: installments must be between 0 and 12 (0 means a single payment)", ErrInvalidRequest)
	}
	return nil
}

type DebitCardRequest struct {
	CardToken       string
	PaymentMethodID string
}

func (DebitCardRequest) Method() model.PaymentMethod { return model.PaymentMethodDebitCard }

func (r DebitCardRequest) Validate() error {
	if strings.TrimSpace(r.CardToken) == "" {
		return ErrCardTokenRequired
	}
	return nil
}

// 支払者の識別（CPF/CNPJ）が必要
type BoletoRequest struct {
	TaxID string
}

func (BoletoRequest) Method() model.PaymentMethod { return model.PaymentMethodBoleto }

func (r BoletoRequest) Validate() error {
	if strings.TrimSpace(r.TaxID) == "" {
		return ErrTaxIDRequired
	}
	return nil
}

// 作成結果。方法ごとの表示用データを含む
type PaymentResult struct {
	ID           string              `json:"payment_id"`
	Status       string              `json:"status"`
	StatusDetail string              `json:"status_detail"`
	Method       model.PaymentMethod `json:"payment_method"`

	// PIX
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`

	// boleto
	TicketURL string `json:"ticket_url,omitempty"`
	BarCode   string `json:"barcode,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// 照会結果
type PaymentInfo struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TransactionAmount decimal.Decimal
	NetReceivedAmount decimal.Decimal
}

var (
	ErrInvalidRequest    = errors.New("payment: invalid request")
	ErrCardTokenRequired = errors.New("payment: card token required")
	ErrTaxIDRequired     = errors.New("payment: tax id required")
)

// GatewayError はゲートウェイが返した失敗。Messageはログ用で利用者には見せない
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway: status=%d: %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("payment gateway: status=%d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}
