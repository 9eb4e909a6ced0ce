package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carz-auction/internal/auth"
	bidding "carz-auction/internal/biddingService"
	"carz-auction/internal/catalog"
	"carz-auction/internal/config"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"
	"carz-auction/internal/server"
	"carz-auction/internal/sweeper"
	"carz-auction/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.LogLevel})
	}
	gin.DefaultWriter = utils.Writer("debug")
	gin.DefaultErrorWriter = utils.Writer("error")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		utils.Fatal("auction server stopped", map[string]any{"error": err.Error()})
	}
}

// run serves until ctx is done or the listener fails, then shuts down and releases the store.
func run(ctx context.Context, cfg config.Config) error {
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s auction store: %w", cfg.StorageDriver, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			utils.Error("failed to close auction store", map[string]any{"error": err.Error()})
		}
	}()

	authenticator := auth.NewPasswordAuthenticator(repo, cfg.BcryptCost)
	biddingSvc := bidding.NewBiddingService(repo, authenticator)

	if cfg.SeedOnStart {
		if err := seedCatalog(ctx, cfg.SeedCatalog, repo, authenticator); err != nil {
			return fmt.Errorf("seed catalog %q: %w", cfg.SeedCatalog, err)
		}
	}

	sweep, err := sweeper.New(repo, cfg.SweepSchedule)
	if err != nil {
		return fmt.Errorf("create expiry sweeper: %w", err)
	}
	sweep.Start()

	limiter := server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go cleanupLimiter(cleanupCtx, limiter)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           server.SetupRouter(biddingSvc, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.Info("starting auction server", map[string]any{"address": cfg.ServerAddress, "driver": cfg.StorageDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		utils.Info("shutting down", nil)
	case err := <-serveErr:
		runErr = fmt.Errorf("serve on %s: %w", cfg.ServerAddress, err)
		utils.Error("server failed, shutting down", map[string]any{"error": err.Error()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}
	sweep.Stop(shutdownCtx)
	return runErr
}

// openStore returns the auction store selected by STORAGE_DRIVER
var openStore = func(ctx context.Context, cfg config.Config) (repository.AuctionDB, error) {
	policy := pricing.NewPolicy(cfg.MinIncrement)
	if cfg.StorageDriver == config.DriverMemory {
		return repository.NewMemoryRepo(policy), nil
	}
	return repository.NewSQLiteRepo(ctx, cfg.DBPath, policy)
}

// seedCatalog loads the seed catalog and adds its auctions and accounts
func seedCatalog(ctx context.Context, path string, store catalog.AuctionStore, registrar catalog.Registrar) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	_, err = catalog.Seed(ctx, c, store, registrar, time.Now().UTC())
	return err
}

// cleanupLimiter drops idle per-client limiters until ctx is done
func cleanupLimiter(ctx context.Context, limiter *server.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := limiter.Cleanup(now); n > 0 {
				utils.Debug("rate limiter cleanup", map[string]any{"removed": n})
			}
		}
	}
}
