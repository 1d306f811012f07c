package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"

	cfgpkg "httparity/internal/infrastructure/config"
	"httparity/internal/infrastructure/httpapi"
	obs "httparity/internal/infrastructure/observability"
)

func main() {
	cfg := cfgpkg.FromEnv()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("addr", cfg.ObserveAddr).Str("version", obs.Version).Msg("starting observe-server")

	observeLog, err := httpapi.OpenLogWriter(cfg.ObserveLogFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.ObserveLogFile).Msg("cannot open observation log")
		os.Exit(1)
	}
	defer observeLog.Close()

	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: obs.NewMetrics(), ObserveLog: observeLog}

	srv := &http.Server{
		Addr:              cfg.ObserveAddr,
		Handler:           httpapi.NewObserveRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Optional TLS listener with HTTP/2 via ALPN.
	var tlsSrv *http.Server
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		tlsAddr := cfg.TLSAddr
		if tlsAddr == "" {
			tlsAddr = ":8443"
		}
		tlsSrv = &http.Server{
			Addr:              tlsAddr,
			Handler:           httpapi.NewObserveRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := http2.ConfigureServer(tlsSrv, &http2.Server{}); err != nil {
			logger.Error().Err(err).Msg("http2 configure failed")
			os.Exit(1)
		}
		go func() {
			logger.Info().Str("addr", tlsAddr).Msg("starting TLS listener (h2 enabled)")
			if err := tlsSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("tls server error")
				os.Exit(1)
			}
		}()
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
	if tlsSrv != nil {
		if err := tlsSrv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("tls server shutdown error")
		}
	}
	logger.Info().Msg("observe-server stopped")
}
