package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"launchscope/internal/api"
	"launchscope/internal/chain"
	"launchscope/internal/config"
	"launchscope/internal/engine"
	"launchscope/internal/launchpad"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.SnapshotTTL <= 0 {
		return fmt.Errorf("snapshot ttl must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	source := launchpad.NewCachedSource(
		launchpad.NewChainSource(chainClient),
		launchpad.NewSnapshotCache(cfg.SnapshotTTL),
	)
	eng := engine.New(source, logger)
	app := api.NewApp(eng, logger)

	logger.Info("serve start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("listen", cfg.Listen),
		zap.Duration("snapshot_ttl", cfg.SnapshotTTL),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.Listen(cfg.Listen)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return app.Shutdown()
	})

	if err := group.Wait(); err != nil && groupCtx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
