package services

import (
	"bytes"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// SessionLineItem is one priced line handed to Stripe. The sku travels in the
// product metadata so the webhook can rebuild order items later.
type SessionLineItem struct {
	SKU        string
	Name       string
	Image      string
	UnitAmount int64 // minor units
	Quantity   int64
}

// PaymentSessionCreator abstracts session creation for tests.
type PaymentSessionCreator interface {
	CreateCheckoutSession(lineItems []SessionLineItem, metadata map[string]string, successURL, cancelURL string) (*stripe.CheckoutSession, error)
}

type StripeService struct {
	SecretKey  string
	WebhookKey string
	Currency   string
}

func NewStripeService(secretKey, webhookKey, currency string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{SecretKey: secretKey, WebhookKey: webhookKey, Currency: currency}
}

func (s *StripeService) CreateCheckoutSession(lineItems []SessionLineItem, metadata map[string]string, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lineItems))
	for _, li := range lineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(li.Name),
			Metadata: map[string]string{"sku": li.SKU},
		}
		if li.Image != "" {
			productData.Images = stripe.StringSlice([]string{li.Image})
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.Currency),
				UnitAmount:  stripe.Int64(li.UnitAmount),
				ProductData: productData,
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  items,
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Metadata = metadata

	return session.New(params)
}

// ParseWebhook verifies the Stripe signature and returns the event. Anything
// that fails verification must be rejected before any reconciliation logic.
func (s *StripeService) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, s.WebhookKey)
}
