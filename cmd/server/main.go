package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/auth"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/database"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/directory"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/handlers"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/notifier"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/promotion"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load Configuration
	cfg := config.LoadConfig()
	if err := logger.Init(cfg.LogLevel); err != nil {
		logger.Get().Fatal(ctx, "invalid log level", logger.Error(err))
	}
	log := logger.Named("server")

	// Connect to Database
	s, closeStore, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "failed to open store", logger.Error(err))
	}
	defer closeStore()

	tables, err := scoring.Load(cfg.SynergyTablePath)
	if err != nil {
		log.Fatal(ctx, "failed to load synergy tables", logger.Error(err))
	}

	var notify interface {
		promotion.Notifier
		ledger.Notifier
	} = notifier.Nop{}
	if cfg.DiscordEnabled() {
		dn, err := notifier.NewFromToken(cfg.DiscordBotToken, cfg.DiscordNotificationsChannelID)
		if err != nil {
			log.Warn(ctx, "discord notifier not initialized", logger.Error(err))
		} else {
			notify = dn
		}
	}

	m := metrics.Default()
	policy := store.RetryPolicy{
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     cfg.TxBackoff,
	}

	promoter := promotion.New(s,
		promotion.WithRetryPolicy(policy),
		promotion.WithScanLimit(cfg.WaitlistScanLimit),
		promotion.WithNotifier(notify),
		promotion.WithMetrics(m),
	)
	dispatcher := promotion.NewDispatcher(promoter,
		promotion.WithWorkers(cfg.PromotionWorkers),
		promotion.WithQueueSize(cfg.PromotionQueueSize),
	)

	ledgerOpts := []ledger.Option{
		ledger.WithRetryPolicy(policy),
		ledger.WithRemovalListener(dispatcher),
		ledger.WithNotifier(notify),
		ledger.WithMetrics(m),
		ledger.WithReconcileInterval(cfg.ReconcileInterval),
	}
	if cfg.DirectoryEnabled() {
		dir := directory.New(directory.Config{
			BaseURL:      cfg.DirectoryURL,
			TokenURL:     cfg.DirectoryTokenURL,
			ClientID:     cfg.DirectoryClientID,
			ClientSecret: cfg.DirectoryClientSecret,
			Timeout:      cfg.DirectoryTimeout,
		})
		ledgerOpts = append(ledgerOpts, ledger.WithDirectory(dir, cfg.DirectoryTimeout))
	}
	l := ledger.New(s, ledgerOpts...)
	ranker := matching.NewRanker(s, scoring.NewEngine(tables), matching.WithMetrics(m))

	drained := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(drained)
	}()
	go l.Healer().Run(ctx)

	authHandler := auth.NewAuthHandler(cfg)

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, authHandler, handlers.NewHandler(s, l, ranker), m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutDown := make(chan struct{})
	go func() {
		defer close(shutDown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "graceful shutdown failed", logger.Error(err))
		}
	}()

	// Start Server
	log.Info(ctx, "starting server", logger.String("port", cfg.Port), logger.String("driver", cfg.DatabaseDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(ctx, "failed to start server", logger.Error(err))
	}
	// In-flight requests may still queue removals until Shutdown returns.
	<-shutDown
	<-drained
	log.Info(context.Background(), "server stopped")
}
