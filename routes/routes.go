package routes

import (
	"net/http"
	"time"

	"checkout-service/controllers"
	"checkout-service/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cc *controllers.CheckoutController, wc *controllers.WebhookController) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rl := middleware.NewRateLimiter(10, 20, 10*time.Minute)
	checkout := r.Group("/checkout")
	checkout.Use(middleware.SecurityHeaders(), middleware.OptionalAuth(), rl.Middleware())
	checkout.POST("", cc.CreateCheckoutSession)

	// Stripe webhook (no auth; the signature check is the authentication)
	r.POST("/stripe/webhook", wc.StripeWebhook)
}
