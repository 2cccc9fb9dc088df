package poller_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/poller"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestPollerCommitsFreshResult(t *testing.T) {
	token := invalidation.NewToken()

	var commits atomic.Int32
	fetch := func(ctx context.Context) (poller.Commit, error) {
		return func() { commits.Add(1) }, nil
	}

	p := poller.New("listings", time.Hour, fetch, nil, token, adapter.NewClock())
	require.True(t, p.Start(context.Background()))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return commits.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPollerDiscardsStaleResult(t *testing.T) {
	token := invalidation.NewToken()

	// The first fetch bumps the token mid-flight, so its own commit is
	// stale. The bump also wakes the loop, and the second fetch commits.
	var fetches, commits atomic.Int32
	fetch := func(ctx context.Context) (poller.Commit, error) {
		if fetches.Add(1) == 1 {
			token.Bump()
		}
		return func() { commits.Add(1) }, nil
	}

	p := poller.New("listings", time.Hour, fetch, nil, token, adapter.NewClock())
	require.True(t, p.Start(context.Background()))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return fetches.Load() == 2 && commits.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPollerSkipsWhileGateBusy(t *testing.T) {
	token := invalidation.NewToken()
	gate := txflow.NewGate()
	require.NoError(t, gate.Acquire())

	var fetches atomic.Int32
	fetch := func(ctx context.Context) (poller.Commit, error) {
		fetches.Add(1)
		return nil, nil
	}

	p := poller.New("listings", time.Hour, fetch, gate, token, adapter.NewClock())
	require.True(t, p.Start(context.Background()))
	defer p.Stop()

	// The initial run and a bump-triggered run are both skipped
	token.Bump()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fetches.Load())

	// Releasing the gate lets the next bump through
	gate.Release()
	require.Eventually(t, func() bool {
		token.Bump()
		return fetches.Load() >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestPollerStartStopLifecycle(t *testing.T) {
	token := invalidation.NewToken()
	fetch := func(ctx context.Context) (poller.Commit, error) {
		return nil, nil
	}

	p := poller.New("listings", time.Hour, fetch, nil, token, adapter.NewClock())

	require.True(t, p.Start(context.Background()))
	assert.False(t, p.Start(context.Background()))

	p.Stop()
	p.Stop()

	require.True(t, p.Start(context.Background()))
	p.Stop()
}
