package activity

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

const (
	// eventFetchLimit is how many events are pulled per kind before merging
	eventFetchLimit = 200

	// DefaultFeedLimit is the merged feed size when the caller does not ask
	// for one
	DefaultFeedLimit = 100
)

// Merger builds the merged marketplace activity feed out of the three event
// streams the contract emits: purchases, listings and delistings.
type Merger struct {
	client   sui.Client
	cfg      *config.LedgerConfig
	resolver *metadata.Resolver
	clock    adapter.Clock
	pool     pond.Pool
}

// NewMerger creates a new activity merger backed by a worker pool for the
// timestamp and metadata fan-out
func NewMerger(client sui.Client, cfg *config.LedgerConfig, resolver *metadata.Resolver, clock adapter.Clock, workers int) *Merger {
	if workers <= 0 {
		workers = 10
	}
	return &Merger{
		client:   client,
		cfg:      cfg,
		resolver: resolver,
		clock:    clock,
		pool:     pond.NewPool(workers),
	}
}

// Stop releases the worker pool
func (m *Merger) Stop() {
	m.pool.StopAndWait()
}

// RecentActivity returns the merged feed, newest first. A failing stream or a
// malformed event degrades that slice of the feed, never the whole call.
func (m *Merger) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}

	streams := []struct {
		kind      domain.EventKind
		eventType string
	}{
		{domain.EventKindSale, m.cfg.PurchaseEventType()},
		{domain.EventKindListing, m.cfg.ListEventType()},
		{domain.EventKindCancel, m.cfg.DelistEventType()},
	}

	var mu sync.Mutex
	entries := make([]domain.ActivityEvent, 0, eventFetchLimit*len(streams))

	group := m.pool.NewGroup()
	for _, stream := range streams {
		stream := stream
		group.Submit(func() {
			events, err := m.client.QueryEvents(ctx, stream.eventType, eventFetchLimit, true)
			if err != nil {
				logger.WarnCtx(ctx, "event stream fetch failed",
					zap.String("event_type", stream.eventType), zap.Error(err))
				return
			}
			shaped := m.shapeEvents(events, stream.kind)
			mu.Lock()
			entries = append(entries, shaped...)
			mu.Unlock()
		})
	}
	_ = group.Wait()

	m.fillTimestamps(ctx, entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimestampMs > entries[j].TimestampMs
	})

	entries = dedupe(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	m.fillMetadata(ctx, entries)
	return entries, nil
}

// shapeEvents converts raw events of one kind into feed entries with the
// kind-specific payload. Sale entries carry buyer, seller and price; listing
// entries seller and price; cancel entries neither. Events without an asset
// id are dropped.
func (m *Merger) shapeEvents(events []sui.Event, kind domain.EventKind) []domain.ActivityEvent {
	entries := make([]domain.ActivityEvent, 0, len(events))
	for _, ev := range events {
		assetID := sui.FieldString(ev.ParsedJSON, "nft_id")
		if assetID == "" {
			continue
		}

		entry := domain.ActivityEvent{
			Key:       domain.ActivityKey(ev.ID.TxDigest, ev.ID.EventSeq, kind),
			Kind:      kind,
			AssetID:   assetID,
			ListingID: sui.FieldString(ev.ParsedJSON, "listing_id"),
			TxDigest:  ev.ID.TxDigest,
		}
		if ts, err := strconv.ParseInt(ev.TimestampMs, 10, 64); err == nil && ts > 0 {
			entry.TimestampMs = ts
		}

		switch kind {
		case domain.EventKindSale:
			entry.Price = sui.FieldUint64(ev.ParsedJSON, "price")
			entry.Buyer = sui.FieldString(ev.ParsedJSON, "buyer")
			entry.Seller = sui.FieldString(ev.ParsedJSON, "seller")
		case domain.EventKindListing:
			entry.Price = sui.FieldUint64(ev.ParsedJSON, "price")
			entry.Seller = sui.FieldString(ev.ParsedJSON, "seller")
		case domain.EventKindCancel:
			// No price and no guaranteed seller on delist events
		}
		entries = append(entries, entry)
	}
	return entries
}

// fillTimestamps resolves timestamps for entries whose event carried none by
// looking up their transaction, one lookup per distinct digest. Entries whose
// transaction cannot be found fall back to the current time so they surface
// at the top instead of vanishing.
func (m *Merger) fillTimestamps(ctx context.Context, entries []domain.ActivityEvent) {
	missing := make(map[string]struct{})
	for i := range entries {
		if entries[i].TimestampMs == 0 {
			missing[entries[i].TxDigest] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return
	}

	var mu sync.Mutex
	timestamps := make(map[string]int64, len(missing))

	group := m.pool.NewGroup()
	for digest := range missing {
		digest := digest
		group.Submit(func() {
			ts := m.txTimestamp(ctx, digest)
			mu.Lock()
			timestamps[digest] = ts
			mu.Unlock()
		})
	}
	_ = group.Wait()

	for i := range entries {
		if entries[i].TimestampMs == 0 {
			entries[i].TimestampMs = timestamps[entries[i].TxDigest]
		}
	}
}

func (m *Merger) txTimestamp(ctx context.Context, digest string) int64 {
	block, err := m.client.GetTransactionBlock(ctx, digest)
	if err == nil && block != nil {
		if ts, perr := strconv.ParseInt(block.TimestampMs, 10, 64); perr == nil && ts > 0 {
			return ts
		}
	}
	if err != nil {
		logger.WarnCtx(ctx, "transaction timestamp lookup failed",
			zap.String("digest", digest), zap.Error(err))
	}
	return m.clock.Now().UnixMilli()
}

// fillMetadata resolves display metadata for the surviving entries through a
// single resolution pass, so repeated assets render identically
func (m *Merger) fillMetadata(ctx context.Context, entries []domain.ActivityEvent) {
	pass := m.resolver.NewPass()

	group := m.pool.NewGroup()
	for i := range entries {
		i := i
		group.Submit(func() {
			resolved := pass.Resolve(ctx, entries[i].AssetID, entries[i].ListingID, entries[i].Kind)
			entries[i].AssetName = resolved.Name
			entries[i].AssetImageURL = resolved.ImageURL
			entries[i].AssetBurned = !resolved.Alive
		})
	}
	_ = group.Wait()
}

// dedupe drops entries sharing a composite key, keeping the first (newest)
// occurrence. Only exact event identity collapses; one asset appearing in
// many events survives in full.
func dedupe(entries []domain.ActivityEvent) []domain.ActivityEvent {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		out = append(out, e)
	}
	return out
}
