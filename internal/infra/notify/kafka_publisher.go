// Package notify は注文イベントの送信先（Kafka / ログ）を実装する。
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"powerchip/internal/usecase"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// kafka.Writer の必要な部分だけ
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w      messageWriter
	logger *zap.Logger
}

// 注文IDをキーにして同じ注文のイベントを同じパーティションに載せる
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{w: w, logger: logger}
}

type eventEnvelope struct {
	EventID string `json:"event_id"`
	usecase.OrderEvent
}

func (p *KafkaPublisher) NotifyOrderEvent(ctx context.Context, ev usecase.OrderEvent) error {
	env := eventEnvelope{EventID: uuid.NewString(), OrderEvent: ev}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify: kafka write: %w", err)
	}

	p.logger.Info("order event published",
		zap.String("event_id", env.EventID),
		zap.String("type", ev.Type),
		zap.Int64("order_id", ev.OrderID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

var _ usecase.Notifier = (*KafkaPublisher)(nil)
