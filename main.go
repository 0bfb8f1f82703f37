package main

import (
	"context"
	"log"

	"checkout-service/config"
	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/logger"
	"checkout-service/models"
	awspkg "checkout-service/pkg/aws"
	"checkout-service/repository"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CheckoutService] Failed to load config:", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	// Profile is owned by the identity service and deliberately not migrated.
	db, err := database.ConnectPostgres(cfg, logger.Log,
		&models.Variant{}, &models.Order{}, &models.OrderItem{},
	)
	if err != nil {
		logger.Log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	database.DB = db
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	var cache *services.CacheManager
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.Warn("Redis unavailable, variant cache disabled", zap.Error(err))
	} else {
		cache = services.NewCacheManager(rdb)
	}

	var snsPublisher awspkg.SNSPublisher
	if cfg.OrderSNSTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Log.Warn("AWS config load failed, order event fan-out disabled", zap.Error(err))
		} else {
			snsPublisher = awspkg.NewSNSClient(awsCfg)
		}
	}

	variantRepo := repository.NewGormVariantRepository(db)
	profileRepo := repository.NewGormProfileRepository(db)
	orderRepo := repository.NewGormOrderRepository(db, cfg.OversoldPolicy)

	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey, cfg.Currency)
	checkoutSvc := services.NewCheckoutService(variantRepo, profileRepo, stripeSvc, cache, cfg.FrontendURL, logger.Log)
	reconciler := services.NewReconciler(orderRepo, cache, snsPublisher, cfg.OrderSNSTopicARN, logger.Log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger())

	cc := &controllers.CheckoutController{Checkout: checkoutSvc, Logger: logger.Log}
	wc := &controllers.WebhookController{Stripe: stripeSvc, Reconciler: reconciler, Logger: logger.Log}
	routes.RegisterRoutes(r, cc, wc)

	logger.Log.Info("Checkout service running",
		zap.String("port", cfg.Port),
		zap.String("oversold_policy", cfg.OversoldPolicy),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed", zap.Error(err))
	}
}
