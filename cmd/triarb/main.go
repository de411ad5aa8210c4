package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triarb/internal/api/rest"
	"triarb/internal/backtest"
	"triarb/internal/cache/redis"
	"triarb/internal/config"
	"triarb/internal/exchange/binance"
	"triarb/internal/infra/health"
	"triarb/internal/infra/http/middleware"
	"triarb/internal/infra/log"
	"triarb/internal/infra/metrics"
	"triarb/internal/infra/netutil"
	"triarb/internal/infra/runner"
	"triarb/internal/infra/version"
	"triarb/internal/pnl"
	"triarb/internal/scanner"
	"triarb/internal/store/postgres"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := log.NewLogger(cfg)

	registry := metrics.Init(logger)

	// One-shot backtest mode: replay a saved ticker dump and exit.
	if os.Getenv("TRIARB_BACKTEST_TICKERS") != "" {
		if err := backtest.RunSavedTickers(cfg.Scanner.MinProfit, logger); err != nil {
			logger.Error().Err(err).Msg("backtest failed")
			os.Exit(1)
		}
		return
	}

	client := binance.New(cfg)
	tracker := pnl.NewTracker()

	var store scanner.Store
	var history rest.History
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		st, err := postgres.NewOpportunityStore(ctx, dsn)
		if err != nil {
			logger.Error().Err(err).Msg("opportunity store unavailable; continuing without persistence")
		} else {
			defer st.Close()
			store = st
			history = st
		}
	}

	var cache scanner.Cache
	if addr := cfg.Storage.RedisAddr; addr != "" {
		sc, err := redis.NewSnapshotCache(ctx, addr, cfg.Storage.RedisDB, time.Duration(cfg.Storage.CacheTTLSec)*time.Second)
		if err != nil {
			logger.Error().Err(err).Msg("snapshot cache unavailable; continuing without caching")
		} else {
			defer func() { _ = sc.Close() }()
			cache = sc
		}
	}

	sc := scanner.New(cfg, logger, client, client, store, cache, tracker)
	api := rest.New(sc, tracker, history)

	mux := http.NewServeMux()
	adminCIDRs := netutil.ParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	mux.Handle("/", api.Handler())
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}

	handler := middleware.RequestID(middleware.Logger(logger)(mux))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	logger.Info().Str("addr", cfg.Server.Addr).Float64("min_profit", cfg.Scanner.MinProfit).Msg("triangular arbitrage scanner started")

	g := &runner.Group{}
	workerErrCh := g.Go(ctx, sc.Run)

	health.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case s := <-sigCh:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-workerErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("scanner error")
			health.SetReady(false)
		}
	}

	health.SetReady(false)
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	g.Wait()
	logger.Info().Msg("shutdown complete")
}
