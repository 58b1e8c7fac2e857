package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"bountyvault/config"
	"bountyvault/contentref"
	"bountyvault/core/state"
	"bountyvault/native/bounty"
	"bountyvault/observability/logging"
	"bountyvault/rpc"
	"bountyvault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := os.Getenv("BOUNTY_ENV")
	if env == "" {
		env = "local"
	}
	logger := logging.Setup("bountyd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "path", *configFile, "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open state database", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	manager := state.NewManager(db)
	allocations, err := cfg.GenesisAllocations()
	if err != nil {
		logger.Error("invalid genesis allocations", "error", err)
		os.Exit(1)
	}
	applied, err := manager.ApplyGenesis(allocations)
	if err != nil {
		logger.Error("failed to apply genesis allocations", "error", err)
		os.Exit(1)
	}
	if applied {
		logger.Info("applied genesis allocations", "accounts", len(allocations))
	}

	engine := bounty.NewEngine()
	engine.SetState(manager)

	server := rpc.NewServer(rpc.ServerConfig{
		Address:      cfg.RPCAddress,
		AuthSecret:   cfg.AuthSecret(),
		AuthIssuer:   cfg.AuthIssuer,
		AuthAudience: cfg.AuthAudience,
		RateLimit:    float64(cfg.RateLimit),
		RateBurst:    cfg.RateBurst,
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}, engine, contentref.NewRegistry(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting bounty vault daemon",
		"network", cfg.NetworkName,
		"rpc", cfg.RPCAddress,
		"data", cfg.DataDir,
	)
	if err := server.Start(ctx); err != nil {
		logger.Error("rpc server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
