package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warungku/poscore/internal/config"
	"github.com/warungku/poscore/internal/escpos"
	"github.com/warungku/poscore/internal/event"
	handler "github.com/warungku/poscore/internal/handler/http"
	"github.com/warungku/poscore/internal/journal"
	"github.com/warungku/poscore/internal/orderclient"
	"github.com/warungku/poscore/internal/printer"
	"github.com/warungku/poscore/internal/receipt"
	redisrepo "github.com/warungku/poscore/internal/repository/redis"
	"github.com/warungku/poscore/internal/service"
	"github.com/warungku/poscore/pkg/health"
	"github.com/warungku/poscore/pkg/httpclient"
	pkgkafka "github.com/warungku/poscore/pkg/kafka"
)

// App wires together all dependencies and runs the POS core service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	redis      *redis.Client
	producer   *pkgkafka.Producer
	journal    *journal.Journal
	transport  printer.Transport
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis holds parked orders between sales.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr))

	// Local receipt journal for offline reprints.
	jr, err := journal.Open(cfg.JournalDir)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open receipt journal: %w", err)
	}
	logger.Info("receipt journal opened", slog.String("dir", cfg.JournalDir))

	if cfg.JournalRetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.JournalRetentionDays)
		if removed, err := jr.Prune(cutoff); err != nil {
			logger.Warn("journal prune failed", slog.String("error", err.Error()))
		} else if removed > 0 {
			logger.Info("journal pruned", slog.Int("entries_removed", removed))
		}
	}

	// Kafka producer for sale and receipt events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	eventProducer := event.NewProducer(producer, logger)

	// Order service client. Submission is non-idempotent so retries stay
	// disabled; the circuit breaker still sheds load when the order
	// service is down.
	orderTimeout := time.Duration(cfg.OrderTimeoutSeconds) * time.Second
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         orderTimeout,
		MaxRetries:      0,
		MaxConnsPerHost: 4,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "pos-order-service",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	orderClient := orderclient.New(cbClient, cfg.OrderServiceURL, orderTimeout, logger)

	// Printer transport and print pipeline.
	printerCfg := printer.Config{
		ChunkSize:       cfg.ChunkSize,
		InterChunkDelay: time.Duration(cfg.InterChunkDelayMs) * time.Millisecond,
		ConnectTimeout:  time.Duration(cfg.ConnectTimeoutSec) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeoutSec) * time.Second,
		Filters:         printer.DefaultFilters(),
	}

	var transport printer.Transport
	switch cfg.PrinterBackend {
	case "network":
		transport = printer.NewNetTransport(cfg.PrinterAddress, printerCfg, logger)
	default:
		scanner := &printer.RfcommScanner{Glob: cfg.RfcommGlob}
		transport = printer.NewSessionTransport(scanner, printerCfg, logger)
	}
	logger.Info("printer transport configured",
		slog.String("backend", cfg.PrinterBackend),
		slog.Int("chunk_bytes", cfg.ChunkSize),
	)

	settleDelay := time.Duration(cfg.SettleDelayMs) * time.Millisecond
	orchestrator := printer.NewOrchestrator(transport, escpos.Renderer{}, settleDelay, logger)

	shop := receipt.ShopInfo{
		Name:    cfg.ShopName,
		Address: cfg.ShopAddress,
		Phone:   cfg.ShopPhone,
	}

	// Build the dependency graph.
	printingService := service.NewPrintingService(transport, orchestrator, shop, cfg.PaperWidth, logger)
	checkoutDefaults := service.Defaults{
		TaxPercent: int64(cfg.DefaultTaxRate),
		Copies:     cfg.ReceiptCopies,
	}
	checkoutService := service.NewCheckoutService(orderClient, eventProducer, jr, printingService, checkoutDefaults, logger)

	holdTTL := time.Duration(cfg.HoldTTLHours) * time.Hour
	holdRepo := redisrepo.NewHoldRepository(rdb, holdTTL)
	holdService := service.NewHoldService(holdRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(checkoutService, printingService, holdService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      rdb,
		producer:   producer,
		journal:    jr,
		transport:  transport,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests, including any running print job)
// 2. Printer transport
// 3. Kafka producer
// 4. Receipt journal
// 5. Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.transport.Disconnect(); err != nil {
		a.logger.Error("printer disconnect error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.journal.Close(); err != nil {
		a.logger.Error("receipt journal close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
