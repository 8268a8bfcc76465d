package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MergeEvent records the outcome of one guest-to-account cart merge.
type MergeEvent struct {
	UserID     string    `json:"user_id"`
	Merged     int       `json:"merged"`
	Retained   int       `json:"retained"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits cart audit events. Publishing is best effort: a broker
// outage is logged, never surfaced, because the merge it reports on has
// already happened.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger, brokers ...string) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    "cart-merged",
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: writer, logger: logger}
}

func (p *Publisher) CartMerged(ctx context.Context, userID string, merged, retained int) {
	evt := MergeEvent{
		UserID:     userID,
		Merged:     merged,
		Retained:   retained,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("marshal merge event failed", zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn("publish merge event failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
