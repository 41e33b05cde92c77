package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/ggaans/Accelerated-PMTiles-Lambda/internal/infrastructure/http/v1"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/infrastructure/http/v1/handler"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/http_server"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("starting pmtiles server", "bucket", cfg.S3.Bucket, "key_template", cfg.Archive.KeyTemplate)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
	}

	serveUseCase, err := NewServeUseCase(context.Background(), cfg, l)
	if err != nil {
		l.Fatal("failed to wire tile server", "error", err)
	}

	h := handler.NewHandler(serveUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
