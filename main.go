package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/logger"
	"storefront-service/middleware"
	"storefront-service/providers"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	redisClient := database.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
	draftRepo := repository.NewDraftRepository(redisClient, cfg.CartTTL)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.SessionTTL)

	gateway := providers.NewBuckPayClient(cfg.BuckPayAPIURL, cfg.BuckPayAPIToken)
	cepLookup := providers.NewViaCEPClient(cfg.ViaCEPBaseURL)
	analytics := providers.NewUtmifyClient(cfg.UtmifyAPIURL, cfg.UtmifyAPIToken)

	cartSvc := services.NewCartService(cartRepo, cfg.CartMaxQuantity, logger.Log)
	checkoutSvc := services.NewCheckoutService(
		draftRepo, cartRepo, cepLookup,
		cfg.FreeShippingThreshold, cfg.ShippingFee, logger.Log)
	paymentSvc := services.NewPaymentService(
		gateway, analytics, sessionRepo,
		cfg.PaymentWindow, cfg.UtmifyPlatform, logger.Log)
	watchers := services.NewWatcherManager(sessionRepo, cartRepo, gateway, analytics, services.WatcherConfig{
		Window:             cfg.PaymentWindow,
		PollInterval:       cfg.PollInterval,
		CountdownInterval:  cfg.CountdownInterval,
		ClearCartOnPayment: cfg.ClearCartOnPayment,
	}, logger.Log)

	cartCtrl := controllers.NewCartController(cartSvc, logger.Log)
	checkoutCtrl := controllers.NewCheckoutController(checkoutSvc, paymentSvc, watchers, logger.Log)
	paymentCtrl := controllers.NewPaymentController(paymentSvc, watchers, logger.Log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	corsCfg := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, middleware.SessionHeader)
	r.Use(cors.New(corsCfg))

	routes.SetupRoutes(r, cartCtrl, checkoutCtrl, paymentCtrl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Starting storefront service", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down")
	watchers.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
}
