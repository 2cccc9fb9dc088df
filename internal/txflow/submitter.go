package txflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/messaging"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

// Result is the outcome of a confirmed submission
type Result struct {
	Digest string `json:"digest"`
	Token  uint64 `json:"token"`
}

// Submitter executes signed transactions. The invalidation token moves only
// after the ledger confirms success; a rejected transaction leaves every
// cached view untouched. Submissions are never retried.
type Submitter struct {
	client    sui.Client
	gate      *Gate
	token     *invalidation.Token
	publisher messaging.Publisher
	clock     adapter.Clock
}

// NewSubmitter creates a new transaction submitter
func NewSubmitter(client sui.Client, gate *Gate, token *invalidation.Token, publisher messaging.Publisher, clock adapter.Clock) *Submitter {
	return &Submitter{
		client:    client,
		gate:      gate,
		token:     token,
		publisher: publisher,
		clock:     clock,
	}
}

// Submit executes signed transaction bytes, holding the write gate for the
// duration. Returns ErrBusy without touching the network when another write
// is in flight.
func (s *Submitter) Submit(ctx context.Context, txBytes string, signatures []string) (*Result, error) {
	if txBytes == "" {
		return nil, &domain.ValidationError{Field: "tx_bytes", Message: "tx_bytes is required"}
	}
	if len(signatures) == 0 {
		return nil, &domain.ValidationError{Field: "signatures", Message: "at least one signature is required"}
	}

	if err := s.gate.Acquire(); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	block, err := s.client.ExecuteTransactionBlock(ctx, txBytes, signatures)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transaction: %w", err)
	}

	if block.Effects == nil || block.Effects.Status.Status != "success" {
		reason := "unknown"
		if block.Effects != nil && block.Effects.Status.Error != "" {
			reason = block.Effects.Status.Error
		}
		return nil, fmt.Errorf("transaction %s rejected by the ledger: %s", block.Digest, reason)
	}

	token := s.token.Bump()
	s.publishRefresh(ctx, token)

	logger.InfoCtx(ctx, "transaction confirmed",
		zap.String("digest", block.Digest), zap.Uint64("token", token))

	return &Result{Digest: block.Digest, Token: token}, nil
}

// publishRefresh is best effort; a broker outage must not fail a confirmed
// transaction
func (s *Submitter) publishRefresh(ctx context.Context, token uint64) {
	if s.publisher == nil {
		return
	}
	event := domain.RefreshEvent{
		Token: token,
		Scope: domain.RefreshScopeAll,
		At:    s.clock.Now(),
	}
	if err := s.publisher.PublishRefresh(ctx, event); err != nil {
		logger.WarnCtx(ctx, "failed to publish refresh event", zap.Error(err))
	}
}
