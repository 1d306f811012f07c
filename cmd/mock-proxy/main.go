package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgpkg "httparity/internal/infrastructure/config"
	"httparity/internal/infrastructure/httpapi"
	obs "httparity/internal/infrastructure/observability"
)

func main() {
	cfg := cfgpkg.FromEnv()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("addr", cfg.ProxyAddr).Str("version", obs.Version).Msg("starting mock-proxy")

	proxyLog, err := httpapi.OpenLogWriter(cfg.ProxyLogFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.ProxyLogFile).Msg("cannot open proxy log")
		os.Exit(1)
	}
	defer proxyLog.Close()

	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: obs.NewMetrics(), ProxyLog: proxyLog}

	// No WriteTimeout: CONNECT tunnels are long-lived and bounded by the
	// relay idle deadline instead.
	srv := &http.Server{
		Addr:              cfg.ProxyAddr,
		Handler:           httpapi.NewProxyHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("mock-proxy stopped")
}
