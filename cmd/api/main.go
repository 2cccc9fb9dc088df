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
	"github.com/nftbazaar/marketgate/internal/api/middleware"
	"github.com/nftbazaar/marketgate/internal/api/rest"
	"github.com/nftbazaar/marketgate/internal/api/server"
	"github.com/nftbazaar/marketgate/internal/api/ws"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/marketplace"
	"github.com/nftbazaar/marketgate/internal/messaging"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/pinning"
	"github.com/nftbazaar/marketgate/internal/poller"
	"github.com/nftbazaar/marketgate/internal/providers/jetstream"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting marketgate API")

	// Initialize adapters
	httpClient := adapter.NewHTTPClient(cfg.Ledger.HTTPTimeout)
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Ledger client
	suiClient := sui.NewClient(cfg.Ledger.RPCURL, httpClient)

	// Process-wide write gate and invalidation token
	gate := txflow.NewGate()
	token := invalidation.NewToken()

	// Connect to NATS when configured; refresh fan-out between instances is
	// optional for a single-node deployment
	var publisher messaging.Publisher
	var subscriber *jetstream.Subscriber
	if cfg.NATS.URL != "" {
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
		publisher = jetstream.NewPublisher(nc, js, cfg.NATS.StreamName, jsonAdapter)
		subscriber = jetstream.NewSubscriber(js, cfg.NATS.StreamName, jsonAdapter)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("failed to close NATS connection", zap.Error(err))
			}
		}()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	// Read engines
	resolver := metadata.NewResolver(suiClient)
	aggregator := marketplace.NewListingAggregator(suiClient, &cfg.Ledger)
	inventory := marketplace.NewInventory(suiClient, &cfg.Ledger)
	merger := activity.NewMerger(suiClient, &cfg.Ledger, resolver, clock, cfg.Poll.WorkerPoolSize)
	defer merger.Stop()
	locator := marketplace.NewLocator(suiClient, &cfg.Ledger)

	// Write path
	builder := txflow.NewBuilder(suiClient, &cfg.Ledger)
	submitter := txflow.NewSubmitter(suiClient, gate, token, publisher, clock)

	// Pinning
	pinner := pinning.NewService(httpClient, &cfg.Pinning)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Relay token bumps to connected clients
	go relayBumps(ctx, token, clock, hub)

	// Remote refresh events (standalone poller, other API instances) bump the
	// local token so views and clients converge
	if subscriber != nil {
		err := subscriber.Start(ctx, "api-refresh", func(event domain.RefreshEvent) {
			token.Bump()
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to start refresh subscriber", zap.Error(err))
		}
		defer subscriber.Stop()
	}

	// Background pollers push fresh snapshots to WebSocket clients
	listingsPoller := poller.New("listings", cfg.Poll.ListingsInterval, func(ctx context.Context) (poller.Commit, error) {
		records, err := aggregator.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return func() { hub.BroadcastListings(records) }, nil
	}, gate, token, clock)

	activityPoller := poller.New("activity", cfg.Poll.ActivityInterval, func(ctx context.Context) (poller.Commit, error) {
		entries, err := merger.RecentActivity(ctx, cfg.Poll.ActivityLimit)
		if err != nil {
			return nil, err
		}
		return func() { hub.BroadcastActivity(entries) }, nil
	}, gate, token, clock)

	listingsPoller.Start(ctx)
	activityPoller.Start(ctx)
	defer listingsPoller.Stop()
	defer activityPoller.Stop()

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	handler := rest.NewHandler(aggregator, inventory, merger, resolver, locator, builder, submitter, pinner, token, suiClient)
	srv := server.New(serverConfig, handler, hub)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}

// relayBumps forwards invalidation movements to WebSocket clients
func relayBumps(ctx context.Context, token *invalidation.Token, clock adapter.Clock, hub *ws.Hub) {
	bumps, stop := token.Watch()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case value := <-bumps:
			hub.BroadcastRefresh(domain.RefreshEvent{
				Token: value,
				Scope: domain.RefreshScopeAll,
				At:    clock.Now(),
			})
		}
	}
}
