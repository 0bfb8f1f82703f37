package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type WebhookController struct {
	Stripe     *services.StripeService
	Reconciler *services.Reconciler
	Logger     *zap.Logger
}

// StripeWebhook receives and dispatches Stripe webhook events. Signature
// verification happens before anything else; unverified payloads are
// rejected outright.
func (wc *WebhookController) StripeWebhook(c *gin.Context) {
	event, err := wc.Stripe.ParseWebhook(c.Request)
	if err != nil {
		wc.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	wc.Logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		wc.handleSessionEvent(c, event)
	default:
		wc.Logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}

func (wc *WebhookController) handleSessionEvent(c *gin.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		wc.Logger.Error("Failed to unmarshal checkout session", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
		return
	}

	// A completed session with a delayed payment method is not paid yet; the
	// async_payment_succeeded event follows once the money moves.
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		wc.Logger.Info("Session completed but not yet paid, waiting for async payment",
			zap.String("session_id", sess.ID),
		)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	err := wc.Reconciler.HandleSessionCompleted(c.Request.Context(), &sess)
	if err != nil && !errors.Is(err, services.ErrDuplicateNotification) {
		wc.Logger.Error("Reconciliation failed, webhook will be retried",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		// 5xx tells Stripe to redeliver; partial state never survives
		// because the reconciliation transaction rolled back.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
