package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/activity"
	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/marketplace"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/poller"
	"github.com/nftbazaar/marketgate/internal/providers/jetstream"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadPollerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "feed-poller",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting marketgate feed poller")

	// Initialize adapters
	httpClient := adapter.NewHTTPClient(cfg.Ledger.HTTPTimeout)
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Ledger client and read engines
	suiClient := sui.NewClient(cfg.Ledger.RPCURL, httpClient)
	resolver := metadata.NewResolver(suiClient)
	aggregator := marketplace.NewListingAggregator(suiClient, &cfg.Ledger)
	merger := activity.NewMerger(suiClient, &cfg.Ledger, resolver, clock, cfg.Poll.WorkerPoolSize)
	defer merger.Stop()

	// Connect to NATS; the poller exists to feed other instances
	nc, js, err := jetstream.Connect(ctx, jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, adapter.NewNatsJetStream())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err))
	}
	publisher := jetstream.NewPublisher(nc, js, cfg.NATS.StreamName, jsonAdapter)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close NATS connection", zap.Error(err))
		}
	}()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))

	// The local token never moves in this binary; it only provides the
	// snapshot/commit staleness check inside the pollers
	token := invalidation.NewToken()

	announce := func(scope domain.RefreshScope) poller.Commit {
		return func() {
			event := domain.RefreshEvent{
				Token: token.Current(),
				Scope: scope,
				At:    clock.Now(),
			}
			if err := publisher.PublishRefresh(ctx, event); err != nil {
				logger.WarnCtx(ctx, "failed to publish refresh event",
					zap.String("scope", string(scope)), zap.Error(err))
			}
		}
	}

	listingsPoller := poller.New("listings", cfg.Poll.ListingsInterval, func(ctx context.Context) (poller.Commit, error) {
		if _, err := aggregator.ListActive(ctx); err != nil {
			return nil, err
		}
		return announce(domain.RefreshScopeListings), nil
	}, nil, token, clock)

	activityPoller := poller.New("activity", cfg.Poll.ActivityInterval, func(ctx context.Context) (poller.Commit, error) {
		if _, err := merger.RecentActivity(ctx, cfg.Poll.ActivityLimit); err != nil {
			return nil, err
		}
		return announce(domain.RefreshScopeActivity), nil
	}, nil, token, clock)

	listingsPoller.Start(ctx)
	activityPoller.Start(ctx)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))

	listingsPoller.Stop()
	activityPoller.Stop()
	cancel()

	logger.Info("Feed poller stopped")
}
