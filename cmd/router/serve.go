package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowmesh/etl-router/internal/adminserver"
	"github.com/flowmesh/etl-router/internal/buffer"
	"github.com/flowmesh/etl-router/internal/checkpoint"
	"github.com/flowmesh/etl-router/internal/config"
	"github.com/flowmesh/etl-router/internal/loadbalancer"
	"github.com/flowmesh/etl-router/internal/registry"
	"github.com/flowmesh/etl-router/internal/routing"
	"github.com/flowmesh/etl-router/pkg/logger"
	"github.com/flowmesh/etl-router/pkg/metrics"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the router's buffer manager, registry, and admin HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	reg := metrics.NewRegistry("etl_router", nil)

	var ckptStore checkpoint.Store = checkpoint.NewMemoryStore()
	if cfg.Checkpoint.Enabled {
		redisStore, err := checkpoint.NewRedisStore(cfg.Checkpoint, log)
		if err != nil {
			return fmt.Errorf("building checkpoint store: %w", err)
		}
		ckptStore = redisStore
	}
	defer ckptStore.Close()

	bufMgr := buffer.NewManager(cfg.Buffer.AsBufferConfig(), log, reg.Buffer())
	store := registry.NewStore(cfg.Registry.LeaseTTL, log, reg.ServiceRegistry())
	store.SetCheckpointStore(ckptStore)
	lb := loadbalancer.New(log, reg.LoadBalancer())
	matcher := routing.NewConditionMatcher(routing.MatcherOptions{Logger: log, Metrics: reg.Matcher()})

	sweeper := registry.NewLeaseSweeper(store, cfg.Registry.SweepInterval, log)

	admin := adminserver.New(cfg.Server.AdminAddr, adminserver.Deps{
		BufferManager: bufMgr,
		Store:         store,
		LoadBalancer:  lb,
		Matcher:       matcher,
		Logger:        log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper.Start(ctx)
	admin.Start()

	log.Info("router started", "admin_addr", cfg.Server.AdminAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down router")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	sweeper.Stop()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server forced shutdown", "error", err)
		return err
	}

	log.Info("router stopped")
	return nil
}
