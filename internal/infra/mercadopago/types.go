package mercadopago

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// POST /v1/payments のボディ
type paymentRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	Description       string      `json:"description"`
	PaymentMethodID   string      `json:"payment_method_id,omitempty"`
	ExternalReference string      `json:"external_reference"`
	NotificationURL   string      `json:"notification_url,omitempty"`
	Token             string      `json:"token,omitempty"`
	Installments      int         `json:"installments,omitempty"`
	IssuerID          string      `json:"issuer_id,omitempty"`
	Payer             payer       `json:"payer"`
}

type payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *identification `json:"identification,omitempty"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type paymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	PaymentMethodID   string          `json:"payment_method_id"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	DateOfExpiration  *time.Time      `json:"date_of_expiration"`

	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`

	TransactionDetails struct {
		ExternalResourceURL string          `json:"external_resource_url"`
		NetReceivedAmount   decimal.Decimal `json:"net_received_amount"`
	} `json:"transaction_details"`

	Barcode struct {
		Content string `json:"content"`
	} `json:"barcode"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        json.Number `json:"code"`
		Description string      `json:"description"`
	} `json:"cause"`
}
