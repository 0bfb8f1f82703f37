package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutController struct {
	Checkout *services.CheckoutService
	Logger   *zap.Logger
}

// CreateCheckoutSession validates the cart and returns the Stripe redirect
// URL. No state is written; the order only comes into existence when the
// payment webhook confirms the session.
func (cc *CheckoutController) CreateCheckoutSession(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// An authenticated identity outranks whatever the client put in the body.
	if userID := middleware.GetUserID(c); userID != "" {
		req.UserID = userID
	}

	url, svcErr := cc.Checkout.Checkout(c.Request.Context(), &req)
	if svcErr != nil {
		cc.Logger.Warn("Checkout rejected",
			zap.Int("status", svcErr.StatusCode),
			zap.String("reason", svcErr.Message),
			zap.String("user_id", req.UserID),
		)
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
