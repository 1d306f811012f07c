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
	logger.Info().Str("addr", cfg.WSAddr).Str("version", obs.Version).Msg("starting ws-scenario")

	wsLog, err := httpapi.OpenLogWriter(cfg.WSHandshakeLogFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.WSHandshakeLogFile).Msg("cannot open handshake log")
		os.Exit(1)
	}
	defer wsLog.Close()

	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: obs.NewMetrics(), WSLog: wsLog}
	if cfg.WSEventsLogFile != "" {
		eventsLog, err := httpapi.OpenLogWriter(cfg.WSEventsLogFile)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.WSEventsLogFile).Msg("cannot open events log")
			os.Exit(1)
		}
		defer eventsLog.Close()
		deps.WSEventsLog = eventsLog
	}

	srv := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           httpapi.NewWSRouter(deps),
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
	logger.Info().Msg("ws-scenario stopped")
}
