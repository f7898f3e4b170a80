package model

// お金の精算状態
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Mercado Pago の status
const (
	GatewayStatusPending     = "pending"
	GatewayStatusApproved    = "approved"
	GatewayStatusAuthorized  = "authorized"
	GatewayStatusInProcess   = "in_process"
	GatewayStatusInMediation = "in_mediation"
	GatewayStatusRejected    = "rejected"
	GatewayStatusCancelled   = "cancelled"
	GatewayStatusRefunded    = "refunded"
	GatewayStatusChargedBack = "charged_back"
)

// 終端（paid → refunded だけ例外）
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// 在庫を戻すべき状態か
func (s PaymentStatus) ReleasesStock() bool {
	return s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// 状態遷移の可否。同じ状態への遷移はtrue（no-op）
func CanTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case PaymentStatusPending, PaymentStatusProcessing:
		switch to {
		case PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled:
			return true
		}
	case PaymentStatusPaid:
		return to == PaymentStatusRefunded
	}
	return false
}

// ゲートウェイのstatus → (payment_status, order.status)
func MapGatewayStatus(gatewayStatus string) (PaymentStatus, OrderStatus) {
	switch gatewayStatus {
	case GatewayStatusApproved, GatewayStatusAuthorized:
		return PaymentStatusPaid, OrderStatusConfirmed
	case GatewayStatusRejected:
		return PaymentStatusFailed, OrderStatusCancelled
	case GatewayStatusCancelled:
		return PaymentStatusCancelled, OrderStatusCancelled
	case GatewayStatusRefunded, GatewayStatusChargedBack:
		return PaymentStatusRefunded, OrderStatusRefunded
	default:
		// pending / in_process / in_mediation / 不明
		return PaymentStatusProcessing, OrderStatusPending
	}
}

var gatewayStatusDescriptions = map[string]string{
	GatewayStatusPending:     "Aguardando pagamento",
	GatewayStatusApproved:    "Pagamento aprovado",
	GatewayStatusAuthorized:  "Pagamento autorizado",
	GatewayStatusInProcess:   "Processando pagamento",
	GatewayStatusInMediation: "Em mediação",
	GatewayStatusRejected:    "Pagamento rejeitado",
	GatewayStatusCancelled:   "Pagamento cancelado",
	GatewayStatusRefunded:    "Pagamento estornado",
	GatewayStatusChargedBack: "Chargeback",
}

// 利用者向けの説明文
func DescribeGatewayStatus(gatewayStatus string) string {
	if d, ok := gatewayStatusDescriptions[gatewayStatus]; ok {
		return d
	}
	return "Status desconhecido"
}
