package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"powerchip/internal/domain/model"
	"powerchip/internal/observability"
	"powerchip/internal/payment"
	repo "powerchip/internal/repository"

	"go.uber.org/zap"
)

// Webhookの処理結果（メトリクスのラベル）
const (
	WebhookApplied           = "applied"
	WebhookDuplicate         = "duplicate"
	WebhookIgnored           = "ignored"
	WebhookOrderNotFound     = "order_not_found"
	WebhookInvalidTransition = "invalid_transition"
	WebhookInvalidSignature  = "invalid_signature"
	WebhookGatewayError      = "gateway_error"
	WebhookError             = "error"
)

// ゲートウェイからの通知（bodyとqueryから組み立てる）
type WebhookNotification struct {
	Type      string
	Action    string
	DataID    string
	RequestID string
	Signature string
}

// payment.created / payment.updated も支払いの通知
func (n WebhookNotification) IsPayment() bool {
	return n.Type == "payment" || strings.HasPrefix(n.Action, "payment.")
}

type WebhookUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	gateway  payment.Gateway
	notifier Notifier
	cache    StatusCache
	secret   string
	logger   *zap.Logger
	now      func() time.Time
}

func NewWebhookUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	gateway payment.Gateway,
	notifier Notifier,
	cache StatusCache,
	webhookSecret string,
	logger *zap.Logger,
) *WebhookUsecase {
	if cache == nil {
		cache = NoopStatusCache
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookUsecase{
		tx:       tx,
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		cache:    cache,
		secret:   webhookSecret,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleNotification は通知を処理して結果を返す。
// エラーはゲートウェイに返さない（常に200で受け取る）のでログとメトリクスにだけ残す
func (u *WebhookUsecase) HandleNotification(ctx context.Context, n WebhookNotification) (outcome string) {
	log := observability.FromContextOr(ctx, u.logger).With(zap.String("payment_id", n.DataID), zap.String("type", n.Type), zap.String("action", n.Action))

	defer func() {
		observability.WebhookEvents.WithLabelValues(outcome).Inc()
	}()

	if !n.IsPayment() || strings.TrimSpace(n.DataID) == "" {
		log.Info("webhook ignored")
		return WebhookIgnored
	}

	if err := payment.VerifyWebhookSignature(u.secret, n.Signature, n.RequestID, n.DataID); err != nil {
		log.Warn("webhook signature invalid", zap.Error(err))
		return WebhookInvalidSignature
	}

	//bodyのstatusは信用せず、ゲートウェイに問い合わせる
	info, err := u.gateway.GetPayment(ctx, n.DataID)
	if err != nil {
		log.Error("webhook payment lookup failed", zap.Error(err))
		return WebhookGatewayError
	}

	order, err := u.orders.FindByPaymentID(ctx, n.DataID)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn("webhook for unknown payment", zap.String("gateway_status", info.Status))
		return WebhookOrderNotFound
	}
	if err != nil {
		log.Error("webhook order lookup failed", zap.Error(err))
		return WebhookError
	}

	newPS, newOS := model.MapGatewayStatus(info.Status)
	log = log.With(zap.Int64("order_id", order.ID), zap.String("gateway_status", info.Status))

	var (
		applied  bool
		previous model.PaymentStatus
		restored bool
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.now()

		recorded, err := r.WebhookEvents().Record(ctx, model.ProcessedWebhookEvent{
			EventKey:    model.WebhookEventKey(n.DataID, info.Status),
			PaymentID:   n.DataID,
			OrderID:     order.ID,
			Status:      info.Status,
			ProcessedAt: now,
		})
		if err != nil {
			return err
		}
		if !recorded {
			outcome = WebhookDuplicate
			return nil
		}

		current, err := r.Orders().FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		previous = current.PaymentStatus

		if current.PaymentStatus == newPS {
			outcome = WebhookDuplicate
			return nil
		}
		//終端からの後戻りはしない
		if !model.CanTransition(current.PaymentStatus, newPS) {
			outcome = WebhookInvalidTransition
			return nil
		}

		if err := r.Orders().UpdatePaymentState(ctx, order.ID, newPS, newOS); err != nil {
			return err
		}

		if newPS.ReleasesStock() {
			restored, err = restoreOrderStock(ctx, r, order.ID, "payment "+info.Status, nil, now)
			if err != nil {
				return err
			}
		}

		applied = true
		outcome = WebhookApplied
		return nil
	})
	if err != nil {
		log.Error("webhook apply failed", zap.Error(err))
		return WebhookError
	}

	switch outcome {
	case WebhookDuplicate:
		log.Info("webhook already processed")
		return outcome
	case WebhookInvalidTransition:
		log.Warn("webhook transition rejected", zap.String("from", string(previous)), zap.String("to", string(newPS)))
		return outcome
	}

	log.Info("webhook applied",
		zap.String("from", string(previous)),
		zap.String("payment_status", string(newPS)),
		zap.String("order_status", string(newOS)),
		zap.Bool("stock_restored", restored),
	)

	if applied {
		u.afterCommit(ctx, log, order, n.DataID, newPS, newOS)
	}
	return outcome
}

// コミット後の通知とキャッシュ削除。失敗しても決済状態は戻さない
func (u *WebhookUsecase) afterCommit(ctx context.Context, log *zap.Logger, o model.Order, paymentID string, ps model.PaymentStatus, st model.OrderStatus) {
	if err := u.cache.Invalidate(ctx, paymentID); err != nil {
		log.Warn("status cache invalidate failed", zap.Error(err))
	}

	eventType := ""
	switch ps {
	case model.PaymentStatusPaid:
		eventType = OrderEventPaid
	case model.PaymentStatusFailed, model.PaymentStatusCancelled:
		eventType = OrderEventPaymentFailed
	case model.PaymentStatusRefunded:
		eventType = OrderEventRefunded
	}
	if eventType == "" || u.notifier == nil {
		return
	}

	if err := u.notifier.NotifyOrderEvent(ctx, OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		PaymentID:     paymentID,
		PaymentStatus: ps,
		OrderStatus:   st,
		TotalAmount:   o.TotalAmount,
		OccurredAt:    u.now(),
	}); err != nil {
		log.Error("order event notify failed", zap.String("event", eventType), zap.Error(err))
	}
}
