package messaging

import (
	"context"

	"github.com/nftbazaar/marketgate/internal/domain"
)

// Publisher broadcasts refresh events to downstream consumers
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishRefresh publishes a refresh event under its scope
	PublishRefresh(ctx context.Context, event domain.RefreshEvent) error

	// Close releases the underlying connection
	Close() error
}
