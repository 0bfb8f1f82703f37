package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout-service/controllers"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	wc := &controllers.WebhookController{
		Stripe: services.NewStripeService("sk_test_x", "whsec_test", "eur"),
		Logger: zap.NewNop(),
	}
	r := gin.New()
	r.POST("/stripe/webhook", wc.StripeWebhook)
	return r
}

func TestStripeWebhook_MissingSignatureRejected(t *testing.T) {
	r := webhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook",
		strings.NewReader(`{"type":"checkout.session.completed"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid webhook")
}

func TestStripeWebhook_BadSignatureRejected(t *testing.T) {
	r := webhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook",
		strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
