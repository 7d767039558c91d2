package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	eventgate "github.com/eventra/eventgate"
)

func main() {
	cfg, err := loadSettings()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	client, cleanup, err := initRedis(cfg)
	if err != nil {
		slog.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	engine, err := buildEngine(cfg, client)
	if err != nil {
		slog.Error("engine build failed", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(engine, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting eventgate server", "port", cfg.Port, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func buildEngine(cfg settings, client redis.UniversalClient) (*eventgate.Engine, error) {
	engineCfg := eventgate.DefaultConfig()
	engineCfg.Backend.BaseURL = cfg.BackendURL
	engineCfg.Cookie.Secure = cfg.CookieSecure
	engineCfg.Cookie.Domain = cfg.CookieDomain
	engineCfg.Metrics.Enabled = cfg.MetricsEnabled
	engineCfg.Metrics.EnableLatencyHistograms = cfg.MetricsEnabled
	engineCfg.Audit.Enabled = cfg.AuditLog

	if cfg.SessionSecret != "" {
		engineCfg.JWT.SigningMethod = "hs256"
		engineCfg.JWT.PrivateKey = []byte(cfg.SessionSecret)
	} else {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, err
		}
		engineCfg.JWT.PrivateKey = priv
		engineCfg.JWT.PublicKey = pub
		slog.Warn("SESSION_SECRET not set; using an ephemeral signing key, sessions will not survive restarts")
	}

	builder := eventgate.New().
		WithConfig(engineCfg).
		WithRedis(client)

	if cfg.AuditLog {
		builder = builder.WithAuditSink(eventgate.NewJSONWriterSink(os.Stdout))
	}

	return builder.Build()
}

func initRedis(cfg settings) (redis.UniversalClient, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return client, func() { _ = client.Close() }, nil
	}

	slog.Warn("REDIS_ADDR not set; starting embedded redis, state is process-local")
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
