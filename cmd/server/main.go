package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colectivo/service-routemap/internal/application"
	"github.com/colectivo/service-routemap/internal/config"
	routemapEvents "github.com/colectivo/service-routemap/internal/events"
	"github.com/colectivo/service-routemap/internal/graphhopper"
	"github.com/colectivo/service-routemap/internal/handler"
	"github.com/colectivo/service-routemap/internal/platform/health"
	"github.com/colectivo/service-routemap/internal/platform/kafka"
	"github.com/colectivo/service-routemap/internal/platform/logger"
	"github.com/colectivo/service-routemap/internal/platform/middleware"
	"github.com/colectivo/service-routemap/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-routemap"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-routemap",
		zap.String("port", cfg.Port),
		zap.Bool("kafka_enabled", cfg.KafkaConfig.Enabled),
	)

	if cfg.APIKey() == "" {
		log.Warn("GH_API_KEY is not set, render cycles will draw no routes until it is")
	}

	// Initialize repositories
	sessionRepo := repository.NewMemorySessionRepository()

	// Initialize routing client
	ghClient := graphhopper.NewClient(graphhopper.Config{
		BaseURL:  cfg.GraphHopper.BaseURL,
		Timeout:  cfg.GraphHopper.Timeout,
		CacheTTL: cfg.GraphHopper.CacheTTL,
	}, log)

	// Initialize Kafka producer
	var notifier application.Notifier
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		notifier = routemapEvents.NewMapRenderedPublisher(kafkaProducer)
	}

	// Initialize application service
	renderService := application.NewRenderService(
		sessionRepo,
		ghClient,
		cfg,
		notifier,
		application.RenderOptions{
			Yield:       cfg.Render.Yield,
			Concurrency: cfg.Render.Concurrency,
		},
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start render command consumer in a goroutine
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "routemap-service"
		commandConsumer := routemapEvents.NewRenderCommandConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			renderService,
			log,
		)
		defer func() { _ = commandConsumer.Close() }()

		go func() {
			log.Info("starting render command consumer")
			if err := commandConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("render command consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	routeMapHandler := handler.NewRouteMapHandler(renderService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	routeMapHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server. Render requests wait on every routing fetch, so the
	// write timeout has to cover the routing client's timeout.
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GraphHopper.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-routemap...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-routemap stopped")
}
