package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"painsignal/internal/classifier"
	"painsignal/internal/config"
	"painsignal/internal/handler"
	"painsignal/internal/llm"
	"painsignal/internal/middleware"
	"painsignal/internal/notify"
	"painsignal/internal/repository"
	"painsignal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting PainSignal...", zap.String("environment", cfg.Server.Environment))

	ctx := context.Background()

	// A missing key is not fatal: every submission then gets the default classification.
	provider, err := llm.NewProvider(ctx, cfg.Classifier, logger)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("Classifier API key not configured, submissions will use default classifications",
			zap.String("provider", cfg.Classifier.Provider))
		provider = nil
	case err != nil:
		return fmt.Errorf("failed to initialize classifier provider: %w", err)
	default:
		defer provider.Close()
		logger.Info("Classifier provider initialized", zap.Any("model_info", provider.GetModelInfo()))
	}

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	dispatcher, err := notify.NewFromConfig(cfg.Notification, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	defer dispatcher.Close()

	router := newRouter(cfg, provider, store, dispatcher, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// newRouter wires the pipeline behind the gin engine.
func newRouter(
	cfg *config.Config,
	provider llm.Provider,
	store *repository.Store,
	notifier service.Notifier,
	logger *zap.Logger,
) *gin.Engine {
	cls := classifier.New(provider, classifier.Options{
		MaxTokens:   cfg.Classifier.MaxTokens,
		Temperature: cfg.Classifier.SamplingTemperature(),
	}, logger)

	ingestion := service.NewIngestionService(
		cls,
		store.Primary,
		service.NewBoundedPublicStore(store.Public, logger),
		notifier,
		service.IngestionOptions{
			MaxPublicEntries:     cfg.Public.MaxEntries,
			MaxDescriptionLength: cfg.Public.MaxDescriptionLength,
		},
		logger,
	)
	waitlist := service.NewWaitlistService(store.Waitlist, logger)

	apiHandler := handler.NewHandler(ingestion, waitlist, cfg.IsDevelopment(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	apiHandler.RegisterRoutes(router,
		middleware.AuthMiddleware(cfg.Auth.JWTSecret, logger),
		limiter.Middleware(),
	)

	return router
}
