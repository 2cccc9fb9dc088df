package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/messaging"
)

// SubjectPrefix is the subject namespace for refresh events. The scope is
// appended, e.g. market.refresh.listings.
const SubjectPrefix = "market.refresh"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON
}

// Connect establishes the NATS connection and JetStream context shared by
// publishers and subscribers, ensuring the refresh stream exists
func Connect(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream) (adapter.NatsConn, adapter.JetStream, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{SubjectPrefix + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to ensure refresh stream: %w", err)
	}

	return nc, js, nil
}

// NewPublisher creates a refresh publisher on an established JetStream context
func NewPublisher(nc adapter.NatsConn, js adapter.JetStream, streamName string, jsonAdapter adapter.JSON) messaging.Publisher {
	return &publisher{
		nc:         nc,
		js:         js,
		streamName: streamName,
		json:       jsonAdapter,
	}
}

// PublishRefresh publishes a refresh event under its scope subject
func (p *publisher) PublishRefresh(ctx context.Context, event domain.RefreshEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", SubjectPrefix, event.Scope)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
