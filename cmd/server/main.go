package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genweb/internal/api"
	"genweb/internal/cache"
	"genweb/internal/config"
	"genweb/internal/generator"
	"genweb/internal/llm"
	"genweb/internal/logs"
	"genweb/internal/media"
	"genweb/internal/metrics"
	"genweb/internal/prompt"
	"genweb/internal/ratelimit"
	"genweb/internal/site"
	"genweb/internal/ttl"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Root context, cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger
	level, err := logs.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := logs.NewLogger(cfg.LogBufferSize, level, os.Stdout)

	// Metrics
	metricsRegistry := metrics.NewRegistry()

	// Cache and admission
	responseCache := cache.New(cfg.Cache.TTL, cfg.Cache.ContextSize, metricsRegistry)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests, metricsRegistry)

	// TTL cleaners
	go ttl.NewCleaner("cache", responseCache, cfg.Cache.SweepInterval, logger, metricsRegistry).Start(ctx)
	go ttl.NewCleaner("ratelimit", limiter, limiter.Window(), logger, metricsRegistry).Start(ctx)

	// Generation
	description, err := prompt.LoadDescription(cfg.PromptFile)
	if err != nil {
		logger.Warnf("using default site description: %v", err)
	}
	mode := prompt.ContextFull
	if cfg.Cache.ContextMode == config.ContextExcerpt {
		mode = prompt.ContextExcerpt
	}
	gen := generator.New(
		llm.NewBackend(cfg),
		prompt.NewBuilder(description, mode, cfg.Cache.ExcerptChars),
		generator.Options{
			Retry: generator.RetryPolicy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
			},
			MaxTokens:      cfg.MaxTokens,
			AttemptTimeout: cfg.AttemptTimeout(),
		},
		logger,
		metricsRegistry,
	)
	svc := site.NewService(limiter, responseCache, gen, logger, metricsRegistry)

	// Media
	if err := os.MkdirAll(cfg.PublicDir, 0o755); err != nil {
		log.Fatalf("create public dir: %v", err)
	}
	mediaServer := media.NewServer(cfg.PublicDir, logger, metricsRegistry)

	// API
	handler := api.NewHandler(svc, mediaServer, responseCache, metricsRegistry, logger)
	mux := http.NewServeMux()
	httpHandler := api.RegisterRoutes(mux, handler, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	logger.Infof("server running at http://%s/ (provider %s, model %s)", cfg.Addr, cfg.Provider, cfg.Model)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Info("server shutdown complete")
}
