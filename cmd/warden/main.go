package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentpay/warden/internal/api"
	"github.com/agentpay/warden/internal/bus"
	"github.com/agentpay/warden/internal/cache"
	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/envelope"
	"github.com/agentpay/warden/internal/evaluator"
	"github.com/agentpay/warden/internal/merchant"
	"github.com/agentpay/warden/internal/policy"
	"github.com/agentpay/warden/internal/repository"
	"github.com/agentpay/warden/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("WARDEN_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting warden",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("WARDEN_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"sealing", cfg.Sealing,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	if os.Getenv("WARDEN_SEED_DEMO") == "true" {
		if err := repository.SeedDemoData(ctx, repo); err != nil {
			slog.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("demo data seeded")
	}

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize pipeline capabilities
	resolver := policy.NewStoreResolver(repo)
	oracle := merchant.NewDirectoryOracle(repo, cacheImpl, cfg.Cache.LocalTTL)

	sealer, err := newSealer(cfg.Sealing)
	if err != nil {
		slog.Error("failed to initialize sealer", "error", err)
		os.Exit(1)
	}
	slog.Info("sealer initialized", "algorithm", sealer.Algorithm())

	eval := evaluator.New(resolver, oracle, sealer)
	slog.Info("evaluator initialized")

	// Initialize async Worker
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("WARDEN_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, eval)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, eval, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("warden is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("warden shutdown complete")
}

// newSealer builds the configured sealing capability. The box sealer
// needs WARDEN_RECIPIENT_PUBKEY, a hex-encoded 32-byte X25519 key.
func newSealer(algorithm string) (envelope.Sealer, error) {
	switch algorithm {
	case domain.SealingBox:
		keyHex := os.Getenv("WARDEN_RECIPIENT_PUBKEY")
		if keyHex == "" {
			slog.Warn("WARDEN_RECIPIENT_PUBKEY not set, falling back to mock sealing")
			return envelope.NewBase64Sealer(), nil
		}
		raw, err := hex.DecodeString(keyHex)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("WARDEN_RECIPIENT_PUBKEY must be 64 hex characters")
		}
		var pub [32]byte
		copy(pub[:], raw)
		return envelope.NewBoxSealer(&pub)

	case domain.SealingMock, "":
		return envelope.NewBase64Sealer(), nil

	default:
		return nil, fmt.Errorf("unsupported sealing algorithm: %s", algorithm)
	}
}

// applyEnvOverrides lets individual settings be tuned without a tier
// switch.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("WARDEN_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("WARDEN_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("WARDEN_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("WARDEN_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("WARDEN_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("WARDEN_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("WARDEN_SEALING"); v != "" {
		cfg.Sealing = v
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  Warden - agent payment intent evaluation")
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /evaluate             - Evaluate a payment intent")
	fmt.Println("    GET  /policies             - List agent policies")
	fmt.Println("    GET  /policies/{agentId}   - Get an agent policy")
	fmt.Println("    PUT  /policies/{agentId}   - Store an agent policy")
	fmt.Println("    GET  /merchants            - List merchant directory")
	fmt.Println("    GET  /merchants/{id}       - Get a merchant entry")
	fmt.Println("    PUT  /merchants/{id}       - Store a merchant entry")
	fmt.Println("    GET  /health               - Health check")
	fmt.Println("    GET  /ready                - Readiness check")
	fmt.Println()
}
