package poller

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

// Commit publishes the result of a completed fetch
type Commit func()

// Fetch runs one read strategy and returns the commit that would publish
// its result. The poller decides whether the commit still applies.
type Fetch func(ctx context.Context) (Commit, error)

// Poller re-runs a read strategy on a fixed interval while the write gate is
// idle, and immediately after every invalidation bump. Each run snapshots
// the invalidation token; a result whose snapshot is stale by commit time is
// discarded, not retried, because a fresher run is already due.
type Poller struct {
	name     string
	interval time.Duration
	fetch    Fetch
	gate     *txflow.Gate
	token    *invalidation.Token
	clock    adapter.Clock

	running  atomic.Bool
	stopChan chan struct{}
	stopped  chan struct{}
}

// New creates a poller. The gate may be nil for read-only deployments.
func New(name string, interval time.Duration, fetch Fetch, gate *txflow.Gate, token *invalidation.Token, clock adapter.Clock) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		fetch:    fetch,
		gate:     gate,
		token:    token,
		clock:    clock,
	}
}

// Start launches the poll loop. Returns false if already running.
func (p *Poller) Start(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		return false
	}
	p.stopChan = make(chan struct{})
	p.stopped = make(chan struct{})

	go p.loop(ctx)
	return true
}

// Stop signals the loop to exit and waits until it has
func (p *Poller) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopChan)
	<-p.stopped
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.stopped)

	bumps, stopWatch := p.token.Watch()
	defer stopWatch()

	logger.InfoCtx(ctx, "poller started",
		zap.String("poller", p.name), zap.Duration("interval", p.interval))

	p.runOnce(ctx)
	for {
		select {
		case <-p.stopChan:
			logger.InfoCtx(ctx, "poller stopped", zap.String("poller", p.name))
			return
		case <-ctx.Done():
			return
		case <-bumps:
			p.runOnce(ctx)
		case <-p.clock.After(p.interval):
			p.runOnce(ctx)
		}
	}
}

// runOnce performs one guarded fetch cycle
func (p *Poller) runOnce(ctx context.Context) {
	if p.gate != nil && p.gate.Busy() {
		// A write is in flight; its confirmation will bump the token and
		// trigger the next run
		return
	}

	snapshot := p.token.Current()
	commit, err := p.fetch(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "poll fetch failed",
			zap.String("poller", p.name), zap.Error(err))
		return
	}
	if commit == nil {
		return
	}

	if p.token.Current() != snapshot {
		logger.InfoCtx(ctx, "discarding stale poll result",
			zap.String("poller", p.name), zap.Uint64("snapshot", snapshot))
		return
	}
	commit()
}
