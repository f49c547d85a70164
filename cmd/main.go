package main

import (
	"context"
	"errors"
	"orderhub"
	"orderhub/internal/api/handler/endpoints"
	"orderhub/internal/api/handler/middleware"
	"orderhub/internal/realtime"
	"orderhub/pkg"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	orderhub.InitConfig(".env")
	cfg := orderhub.GetConfig()

	gin.SetMode(gin.ReleaseMode)
	if cfg.Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(cfg.ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	var opts []realtime.Option
	var locations endpoints.LocationReader
	if cfg.RedisConfig.Enabled {
		store := pkg.NewDriverLocationStore(pkg.DefaultDriverLocationTTL)
		opts = append(opts, realtime.WithLocationRecorder(store))
		locations = store
	}

	hub := realtime.New(realtime.LoadConfig(), orderhub.Logger, opts...)
	if err = hub.Setup(ctx); err != nil {
		orderhub.Logger.Fatal().Err(err).Msg("Failed to start realtime hub")
	}
	defer hub.Shutdown()

	if cfg.NatsConfig.Enabled {
		bridge, err := realtime.NewNATSBridge(cfg.NatsConfig.URL, cfg.TenantID, hub, orderhub.Logger)
		if err != nil {
			orderhub.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer bridge.Close()

		if err = bridge.Subscribe(); err != nil {
			orderhub.Logger.Fatal().Err(err).Msg("Failed to subscribe to NATS events")
		}
	}

	initAPI(router, hub, locations, cfg)

	orderhub.Logger.Debug().Msgf("Starting order hub on port %s", cfg.ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		orderhub.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(router gin.IRouter, hub *realtime.Manager, locations endpoints.LocationReader, cfg orderhub.AppConfig) {
	endpoints.WebSocketHandler(router, hub, cfg)
	endpoints.EventHandler(router, hub, cfg)
	endpoints.DriverHandler(router, locations)
}
