package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CartClearer empties a user's account cart.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// SessionRefresher reloads live cart sessions for a user.
type SessionRefresher interface {
	RefreshUser(ctx context.Context, userID string)
}

// CheckoutConsumer empties a user's account cart once their checkout
// completes, then refreshes any live session so the UI stops showing the
// purchased items.
type CheckoutConsumer struct {
	store    CartClearer
	sessions SessionRefresher
	reader   *kafka.Reader
	logger   *zap.Logger
}

func NewCheckoutConsumer(store CartClearer, sessions SessionRefresher, logger *zap.Logger, brokers ...string) *CheckoutConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "storefront-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &CheckoutConsumer{store: store, sessions: sessions, reader: reader, logger: logger}
}

func (c *CheckoutConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("error reading checkout message", zap.Error(err))
			}
			continue
		}

		c.process(ctx, m.Value)
	}
}

func (c *CheckoutConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing checkout reader", zap.Error(err))
	}
}

func (c *CheckoutConsumer) process(ctx context.Context, payload []byte) {
	var msg struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("error parsing checkout message", zap.Error(err))
		return
	}
	if msg.UserID == "" {
		c.logger.Warn("checkout message missing user_id")
		return
	}

	if err := c.store.Clear(ctx, msg.UserID); err != nil {
		c.logger.Warn("failed to clear cart after checkout",
			zap.String("user_id", msg.UserID), zap.Error(err))
		return
	}

	c.sessions.RefreshUser(ctx, msg.UserID)
}
