package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutItem struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items" binding:"required,dive"`
	UserID     string         `json:"userId"`
	NeedsLabel bool           `json:"needsLabel"`
}

type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// CheckoutService gates a checkout request, prices it and opens the payment
// session. Nothing is persisted here; an abandoned checkout leaves no trace.
type CheckoutService struct {
	variantRepo repository.VariantRepository
	profileRepo repository.ProfileRepository
	stripe      PaymentSessionCreator
	cache       *CacheManager
	frontendURL string
	logger      *zap.Logger
}

func NewCheckoutService(variantRepo repository.VariantRepository, profileRepo repository.ProfileRepository, stripe PaymentSessionCreator, cache *CacheManager, frontendURL string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		variantRepo: variantRepo,
		profileRepo: profileRepo,
		stripe:      stripe,
		cache:       cache,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Checkout validates the cart, prices it and returns the Stripe redirect URL.
// The stock check here is advisory only: it fails fast for the buyer, but
// the conditional decrement at reconciliation is what actually prevents
// overselling, since stock can move while the buyer sits on the payment page.
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (string, *ServiceError) {
	if len(req.Items) == 0 {
		return "", &ServiceError{StatusCode: 400, Message: "at least one item is required"}
	}

	if svcErr := s.checkBuyerRole(ctx, req.UserID); svcErr != nil {
		return "", svcErr
	}

	// Merge duplicate skus so one variant row decides the whole line.
	quantities := make(map[string]int)
	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if _, seen := quantities[item.SKU]; !seen {
			skus = append(skus, item.SKU)
		}
		quantities[item.SKU] += item.Quantity
	}

	variants, err := s.fetchVariants(ctx, skus)
	if err != nil {
		s.logger.Error("Failed to fetch variants for checkout", zap.Error(err))
		return "", &ServiceError{StatusCode: 500, Message: "failed to validate cart"}
	}

	lineItems := make([]SessionLineItem, 0, len(skus))
	cart := make([]models.CartEntry, 0, len(skus))
	for _, sku := range skus {
		v, ok := variants[sku]
		if !ok {
			return "", &ServiceError{StatusCode: 400, Message: fmt.Sprintf("unknown sku %s", sku)}
		}
		if !v.Sellable {
			return "", &ServiceError{StatusCode: 400, Message: fmt.Sprintf("sku %s is not for sale", sku)}
		}
		qty := quantities[sku]
		if v.Stock < qty {
			return "", &ServiceError{StatusCode: 400, Message: fmt.Sprintf("insufficient stock for %s", sku)}
		}

		amount := MinorUnits(v.UnitPrice)
		lineItems = append(lineItems, SessionLineItem{
			SKU:        sku,
			Name:       v.Name,
			Image:      PrimaryImage(v.Images),
			UnitAmount: amount,
			Quantity:   int64(qty),
		})
		cart = append(cart, models.CartEntry{SKU: sku, Quantity: qty, UnitAmount: amount})
	}

	cartJSON, err := json.Marshal(cart)
	if err != nil {
		s.logger.Error("Failed to serialize cart metadata", zap.Error(err))
		return "", &ServiceError{StatusCode: 500, Message: "failed to process order"}
	}

	metadata := map[string]string{
		models.MetadataCartKey:       string(cartJSON),
		models.MetadataUserIDKey:     req.UserID,
		models.MetadataNeedsLabelKey: strconv.FormatBool(req.NeedsLabel),
	}

	successURL := s.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.frontendURL + "/cart"

	sess, err := s.stripe.CreateCheckoutSession(lineItems, metadata, successURL, cancelURL)
	if err != nil {
		s.logger.Warn("Stripe checkout session creation failed", zap.Error(err))
		return "", &ServiceError{StatusCode: 502, Message: "payment session could not be created"}
	}

	s.logger.Info("Stripe checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", req.UserID),
		zap.Int("items", len(lineItems)),
	)
	return sess.URL, nil
}

// checkBuyerRole rejects checkout from seller and admin accounts. Guests and
// accounts without a profile row pass.
func (s *CheckoutService) checkBuyerRole(ctx context.Context, userID string) *ServiceError {
	if userID == "" {
		return nil
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return &ServiceError{StatusCode: 400, Message: "invalid user ID format"}
	}

	profile, err := s.profileRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("Failed to fetch profile", zap.String("user_id", userID), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "failed to verify account"}
	}

	if profile.Role == models.RoleSeller || profile.Role == models.RoleAdmin {
		return &ServiceError{StatusCode: 403, Message: "only buyer accounts can purchase"}
	}
	return nil
}

// fetchVariants reads through the cache and fills misses from Postgres.
func (s *CheckoutService) fetchVariants(ctx context.Context, skus []string) (map[string]models.Variant, error) {
	found := s.cache.GetVariants(ctx, skus)

	missing := make([]string, 0, len(skus))
	for _, sku := range skus {
		if _, ok := found[sku]; !ok {
			missing = append(missing, sku)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	variants, err := s.variantRepo.FindBySKUs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		found[v.SKU] = v
	}
	s.cache.SetVariantsAsync(variants)
	return found, nil
}
