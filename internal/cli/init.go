// Package cli provides common CLI initialization utilities.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"financeflow/internal/backend"
	"financeflow/internal/cache"
	"financeflow/internal/categories"
	"financeflow/internal/config"
	"financeflow/internal/ledger"
	"financeflow/internal/log"
	"financeflow/internal/report"
)

// SetupLogger builds the logger described by cfg, writing to w, and makes it the default.
func SetupLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// Call stop to release the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// RunCleanup runs cleanup, giving up after timeout.
func RunCleanup(logger *log.Logger, timeout time.Duration, cleanup func() error) {
	if cleanup == nil {
		return
	}
	done := make(chan error, 1)
	go func() { done <- cleanup() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			return
		}
		logger.Debug("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}

// Bootstrap wires storage, ledger, caches and reports from cfg.
// The returned cleanup releases the backend connections.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) (*App, func() error, error) {
	catalog := categories.Default()
	if cfg.CategoriesFile != "" {
		c, err := categories.LoadFile(cfg.CategoriesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load categories: %w", err)
		}
		catalog = c
	}

	window, err := report.ParseWindow(cfg.ReportWindow)
	if err != nil {
		return nil, nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []ledger.Option{
		ledger.WithKey(cfg.StorageKey),
		ledger.WithLogger(logger),
		ledger.WithVerifyWrites(cfg.VerifyWrites),
	}
	if cfg.StrictCategories {
		opts = append(opts, ledger.WithCatalog(catalog))
	}
	if result.Publisher != nil {
		opts = append(opts, ledger.WithPublisher(result.Publisher))
	}
	store := ledger.Open(ctx, result.KV, opts...)

	reportCache := cache.NewLRUCache[report.Report](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager(logger)
	manager.Register(reportCache)

	logger.Info("FinanceFlow ready",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.Backend,
		log.FieldStorageKey, store.Key(),
		log.FieldCount, store.Len())

	app := &App{
		Store:    store,
		Reports:  report.NewService(store, reportCache, logger),
		Catalog:  catalog,
		Caches:   manager,
		Stdout:   stdout,
		Stderr:   stderr,
		Logger:   logger.WithComponent(log.ComponentCLI),
		Window:   window,
		TopN:     cfg.TopCategories,
		PageSize: cfg.PageSize,
		CacheTTL: cfg.CacheTTL,
	}
	cleanup := func() error {
		st := reportCache.Stats()
		logger.Debug("Report cache stats",
			log.FieldOperation, log.OpShutdown,
			"size", st.Size,
			"hits", st.Hits,
			"misses", st.Misses)
		return result.Close()
	}
	return app, cleanup, nil
}
