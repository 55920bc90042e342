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

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/api/server"
	"github.com/agora-social/agora-sync/internal/config"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/refresher"
	"github.com/agora-social/agora-sync/internal/social"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
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
		Service:   "api",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Agora sync API")

	// Dial the ledger provider
	client, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial ledger provider",
			zap.Error(err), zap.String("rpc_url", cfg.Chain.RPCURL))
	}
	defer client.Close()

	// The chain ID is captured once; a network switch means a restart
	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to resolve chain ID", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to ledger provider",
		zap.String("rpc_url", cfg.Chain.RPCURL),
		zap.String("chain_id", chainID.String()),
	)

	// Bind the deployed contracts
	registry, err := contracts.NewRegistry(contracts.Addresses{
		CommunityHub:    cfg.Contracts.CommunityHub,
		ContentRegistry: cfg.Contracts.ContentRegistry,
		EventTicketing:  cfg.Contracts.EventTicketing,
		ProfileRegistry: cfg.Contracts.ProfileRegistry,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build contract registry", zap.Error(err))
	}

	ledger := gateway.New(client, adapter.NewClock(), chainID, cfg.Chain.ConfirmInterval, cfg.Chain.GasLimit)

	// An empty signing key yields a read-only session: reads work, writes
	// fail with a clear error.
	session := social.ReadOnlySession()
	if cfg.Signer.PrivateKey != "" {
		signer, err := adapter.NewKeySigner(cfg.Signer.PrivateKey)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to load signing key", zap.Error(err))
		}
		session = social.NewSession(signer)
		address, _ := session.Address()
		logger.InfoCtx(ctx, "Session signer loaded", zap.String("address", address.Hex()))
	} else {
		logger.WarnCtx(ctx, "No signing key configured, session is read-only")
	}

	service, err := social.NewService(ledger, registry, social.Options{
		CacheTTL:      cfg.Sync.CacheTTL,
		MaxScan:       cfg.Sync.MaxScan,
		FeedWorkers:   cfg.Sync.FeedWorkers,
		FeedPerParent: cfg.Sync.FeedPerParent,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create entity service", zap.Error(err))
	}

	// Background cache warming
	refresh := refresher.New(refresher.Config{
		Interval: cfg.Sync.RefreshInterval,
	}, service, adapter.NewClock())
	go func() {
		if err := refresh.Start(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("component", "refresher"))
		}
	}()

	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	srv := server.New(serverConfig, service, session)

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

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := refresh.Stop(shutdownCtx); err != nil {
		logger.WarnCtx(shutdownCtx, "Refresher did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
