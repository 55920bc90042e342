package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/config"
	"github.com/agora-social/agora-sync/internal/contracts"
	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/gateway"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/social"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	timeout    = flag.Duration("timeout", 2*time.Minute, "Deadline for the full scan")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadScanConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Service:   "scan",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	// Dial the ledger provider
	client, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial ledger provider",
			zap.Error(err), zap.String("rpc_url", cfg.Chain.RPCURL))
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to resolve chain ID", zap.Error(err))
	}

	// The head block pins what "as of" means for this pass
	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to read ledger head", zap.Error(err))
	}

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

	service, err := social.NewService(ledger, registry, social.Options{
		CacheTTL:      cfg.Sync.CacheTTL,
		MaxScan:       cfg.Sync.MaxScan,
		FeedWorkers:   cfg.Sync.FeedWorkers,
		FeedPerParent: cfg.Sync.FeedPerParent,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create entity service", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Starting full entity scan",
		zap.String("chain_id", chainID.String()),
		zap.Uint64("head_block", head.Number.Uint64()),
		zap.Int("max_scan", cfg.Sync.MaxScan),
	)

	start := time.Now()
	snapshot, err := service.Refresh(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Scan failed", zap.Error(err))
	}

	degradedPosts := lo.CountBy(snapshot.Feed.Posts, func(p *domain.Post) bool {
		return p.MetadataDegraded
	})
	degradedEvents := lo.CountBy(snapshot.Events, func(e *domain.TicketedEvent) bool {
		return e.MetadataDegraded
	})

	logger.InfoCtx(ctx, "Scan completed",
		zap.Int("communities", len(snapshot.Communities)),
		zap.Int("events", len(snapshot.Events)),
		zap.Int("feed_posts", len(snapshot.Feed.Posts)),
		zap.Int("degraded_posts", degradedPosts),
		zap.Int("degraded_events", degradedEvents),
		zap.Int("failed_communities", len(snapshot.Feed.FailedCommunities)),
		zap.Duration("duration", time.Since(start)),
	)
}
