package invalidation

import (
	"sync"
	"sync/atomic"
)

// Token is the process-wide invalidation counter. It only moves forward,
// and only after the ledger has confirmed a state change. Readers snapshot
// it before a fetch and compare at commit time to detect superseded results.
type Token struct {
	value atomic.Uint64

	mu       sync.Mutex
	watchers map[chan uint64]struct{}
}

// NewToken creates a token starting at zero
func NewToken() *Token {
	return &Token{
		watchers: make(map[chan uint64]struct{}),
	}
}

// Current returns the current token value
func (t *Token) Current() uint64 {
	return t.value.Load()
}

// Bump advances the token and notifies watchers. Watchers that are not
// draining fast enough miss intermediate values but always observe the
// direction of movement.
func (t *Token) Bump() uint64 {
	next := t.value.Add(1)

	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.watchers {
		select {
		case ch <- next:
		default:
		}
	}
	return next
}

// Watch subscribes to bump notifications. The returned stop function must be
// called when the watcher is done.
func (t *Token) Watch() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	t.mu.Lock()
	t.watchers[ch] = struct{}{}
	t.mu.Unlock()

	stop := func() {
		t.mu.Lock()
		delete(t.watchers, ch)
		t.mu.Unlock()
	}
	return ch, stop
}
