package main

import (
	"context"
	"errors"
	"net/http"
	"orderhub"
	"orderhub/internal/realtime"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Standalone hub without the REST API. Publishers reach it over NATS only.
func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "realtime").Logger()
	cfg := realtime.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := realtime.New(cfg, logger)
	if err := hub.Setup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("hub setup")
	}

	bridge, err := realtime.NewNATSBridge(
		orderhub.GetEnv("NATS_URL", "nats://localhost:4222"),
		orderhub.GetEnv("TENANT_ID", "default"),
		hub,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("NATS bridge")
	}
	defer bridge.Close()

	if err := bridge.Subscribe(); err != nil {
		logger.Fatal().Err(err).Msg("NATS subscribe")
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)

	srv := &http.Server{Addr: orderhub.GetEnv("REALTIME_PORT", ":8081"), Handler: mux}
	go func() {
		<-ctx.Done()
		hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", srv.Addr).Msg("Realtime service listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server")
	}
}
