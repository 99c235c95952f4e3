// HTTP server and reconciliation poller.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/config"
	"github.com/Horanet/payment-payzen/internal/handler"
	"github.com/Horanet/payment-payzen/internal/payzen"
	"github.com/Horanet/payment-payzen/internal/repository"
	"github.com/Horanet/payment-payzen/internal/service"
	"github.com/Horanet/payment-payzen/pkg/database"
	"github.com/Horanet/payment-payzen/pkg/logger"
	"github.com/Horanet/payment-payzen/pkg/redis"
)

func main() {
	// Initialize logger
	log := logger.New("payment-payzen")
	defer log.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient := redis.New(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize repository
	txRepo := repository.NewTransactionRepository(db)

	// Protocol components
	codec := payzen.SignatureCodec{Algorithm: payzen.SignatureAlgorithm(cfg.SignatureAlgorithm)}
	refCodec := payzen.SlashSpaceCodec{}
	builder := payzen.NewRequestBuilder(codec, refCodec)
	restClient := payzen.NewRestClient(cfg.RestTimeout)

	// Initialize services
	paymentService := service.NewPaymentService(txRepo, &cfg.Acquirer, builder, log)
	callbackService := service.NewCallbackService(txRepo, &cfg.Acquirer, codec, refCodec, redisClient, log)
	poller := service.NewPoller(txRepo, callbackService, restClient, &cfg.Acquirer, log)
	poller.MinAge = cfg.PollMinAge
	poller.MaxAge = cfg.PollMaxAge

	// Initialize handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	callbackHandler := handler.NewCallbackHandler(callbackService, cfg.RedirectURL, log)

	// Setup router
	router := setupRouter(paymentHandler, callbackHandler)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Reconciliation poller loop
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	pollerDone := make(chan struct{})
	go runPoller(pollerCtx, poller, cfg.PollInterval, log, pollerDone)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopPoller()
	<-pollerDone

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func runPoller(ctx context.Context, poller *service.Poller, interval time.Duration, log *zap.Logger, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

func setupRouter(paymentHandler *handler.PaymentHandler, callbackHandler *handler.CallbackHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway return route, POST or GET depending on vads_return_mode
	router.POST("/payment/payzen/return", callbackHandler.Return)
	router.GET("/payment/payzen/return", callbackHandler.Return)

	// API routes
	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("/:reference", paymentHandler.GetPayment)
		}
	}

	return router
}
