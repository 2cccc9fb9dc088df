package jetstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
)

// RefreshHandler receives refresh events published by other instances
type RefreshHandler func(event domain.RefreshEvent)

// Subscriber consumes refresh events so an API instance learns about writes
// and poll cycles confirmed elsewhere
type Subscriber struct {
	js         adapter.JetStream
	json       adapter.JSON
	streamName string
	consumeCtx adapter.ConsumeContext
}

// NewSubscriber creates a refresh subscriber on an established JetStream context
func NewSubscriber(js adapter.JetStream, streamName string, jsonAdapter adapter.JSON) *Subscriber {
	return &Subscriber{
		js:         js,
		json:       jsonAdapter,
		streamName: streamName,
	}
}

// Start begins consuming refresh events, invoking handler for each one.
// Malformed messages are terminated with a warning, never redelivered.
func (s *Subscriber) Start(ctx context.Context, consumerName string, handler RefreshHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.streamName, jetstream.ConsumerConfig{
		Name:          consumerName,
		FilterSubject: SubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create refresh consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg adapter.Message) {
		var event domain.RefreshEvent
		if err := s.json.Unmarshal(msg.Data(), &event); err != nil {
			logger.Warn("dropping malformed refresh event",
				zap.String("subject", msg.Subject()), zap.Error(err))
			_ = msg.Ack()
			return
		}
		handler(event)
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start refresh consumer: %w", err)
	}

	s.consumeCtx = consumeCtx
	return nil
}

// Stop drains the consumer
func (s *Subscriber) Stop() {
	if s.consumeCtx != nil {
		s.consumeCtx.Drain()
	}
}
