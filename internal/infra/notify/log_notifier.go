package notify

import (
	"context"

	"powerchip/internal/usecase"

	"go.uber.org/zap"
)

// Kafkaが設定されていないときの送信先。ログに残すだけ
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyOrderEvent(_ context.Context, ev usecase.OrderEvent) error {
	n.logger.Info("order event",
		zap.String("type", ev.Type),
		zap.Int64("order_id", ev.OrderID),
		zap.String("order_number", ev.OrderNumber),
		zap.String("payment_id", ev.PaymentID),
		zap.String("payment_status", string(ev.PaymentStatus)),
	)
	return nil
}

var _ usecase.Notifier = (*LogNotifier)(nil)
