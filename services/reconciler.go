package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awspkg "checkout-service/pkg/aws"

	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateNotification marks a redelivered webhook whose order is
	// already committed. Callers must treat it as success.
	ErrDuplicateNotification = errors.New("duplicate payment notification")
)

// Reconciler turns a verified payment-completion event into a persisted
// order plus stock decrements, exactly once per session.
type Reconciler struct {
	orderRepo repository.OrderRepository
	cache     *CacheManager
	sns       awspkg.SNSPublisher
	topicArn  string
	logger    *zap.Logger
}

func NewReconciler(orderRepo repository.OrderRepository, cache *CacheManager, sns awspkg.SNSPublisher, topicArn string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orderRepo: orderRepo,
		cache:     cache,
		sns:       sns,
		topicArn:  topicArn,
		logger:    logger,
	}
}

// HandleSessionCompleted reconciles one completed checkout session. The cart
// and buyer id come from the session's own metadata; a second client-supplied
// cart is never trusted, the client that started checkout may be long gone or
// hostile. Returns ErrDuplicateNotification when the session was already
// reconciled; any other error means the whole reconciliation rolled back and
// the delivery should be retried.
func (r *Reconciler) HandleSessionCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if existing, err := r.orderRepo.FindBySessionID(ctx, sess.ID); err == nil {
		r.logger.Info("Session already reconciled, skipping",
			zap.String("session_id", sess.ID),
			zap.String("order_id", existing.ID.String()),
		)
		return ErrDuplicateNotification
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("order lookup for session %s: %w", sess.ID, err)
	}

	order, err := r.orderFromSession(sess)
	if err != nil {
		return err
	}

	if err := r.orderRepo.CreatePaidOrder(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent delivery of the same session won the insert race;
			// its commit carries the side effects.
			r.logger.Info("Concurrent duplicate delivery detected",
				zap.String("session_id", sess.ID),
			)
			return ErrDuplicateNotification
		}
		return fmt.Errorf("commit order for session %s: %w", sess.ID, err)
	}

	skus := make([]string, 0, len(order.OrderItems))
	oversold := 0
	for _, it := range order.OrderItems {
		skus = append(skus, it.SKU)
		if it.Oversold {
			oversold++
		}
	}
	r.cache.InvalidateAsync(skus)

	if oversold > 0 {
		r.logger.Warn("Order flagged for review: oversold items",
			zap.String("order_id", order.ID.String()),
			zap.String("session_id", sess.ID),
			zap.Int("oversold_items", oversold),
		)
	}
	r.logger.Info("Order reconciled",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sess.ID),
		zap.Int("items", len(order.OrderItems)),
		zap.Int64("amount", order.Amount),
	)

	r.publishOrderEvent(order)
	return nil
}

// orderFromSession rebuilds the order purely from session metadata. Item
// prices come from the unit_amount recorded at checkout time so later catalog
// price changes cannot rewrite history.
func (r *Reconciler) orderFromSession(sess *stripe.CheckoutSession) (*models.Order, error) {
	cartJSON := sess.Metadata[models.MetadataCartKey]
	if cartJSON == "" {
		return nil, fmt.Errorf("session %s metadata has no cart", sess.ID)
	}

	var cart []models.CartEntry
	if err := json.Unmarshal([]byte(cartJSON), &cart); err != nil {
		return nil, fmt.Errorf("session %s cart metadata invalid: %w", sess.ID, err)
	}
	if len(cart) == 0 {
		return nil, fmt.Errorf("session %s cart metadata empty", sess.ID)
	}

	var userID *uuid.UUID
	if raw := sess.Metadata[models.MetadataUserIDKey]; raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("session %s user_id metadata invalid: %w", sess.ID, err)
		}
		userID = &uid
	}

	var total int64
	items := make([]models.OrderItem, 0, len(cart))
	for _, entry := range cart {
		if entry.SKU == "" || entry.Quantity < 1 {
			return nil, fmt.Errorf("session %s cart entry invalid: sku=%q quantity=%d", sess.ID, entry.SKU, entry.Quantity)
		}
		items = append(items, models.OrderItem{
			SKU:       entry.SKU,
			Quantity:  entry.Quantity,
			UnitPrice: entry.UnitAmount,
		})
		total += entry.UnitAmount * int64(entry.Quantity)
	}
	// Prefer the amount Stripe actually charged when present.
	if sess.AmountTotal > 0 {
		total = sess.AmountTotal
	}

	return &models.Order{
		UserID:          userID,
		StripeSessionID: sess.ID,
		Status:          models.OrderStatusPaid,
		Amount:          total,
		Currency:        string(sess.Currency),
		NeedsLabel:      sess.Metadata[models.MetadataNeedsLabelKey] == "true",
		OrderItems:      items,
	}, nil
}

// publishOrderEvent fans the paid order out to SNS, best-effort. A publish
// failure never fails the webhook: the order is already committed.
func (r *Reconciler) publishOrderEvent(order *models.Order) {
	if r.sns == nil || r.topicArn == "" {
		return
	}

	event := models.OrderEvent{
		Type:        "order_paid",
		OrderID:     order.ID.String(),
		Amount:      order.Amount,
		Currency:    order.Currency,
		NeedsLabel:  order.NeedsLabel,
		NeedsReview: order.NeedsReview,
		Timestamp:   time.Now().UTC(),
	}
	if order.UserID != nil {
		event.UserID = order.UserID.String()
	}

	payload, _ := json.Marshal(event)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.sns.Publish(ctx, r.topicArn, payload); err != nil {
		r.logger.Error("Failed to publish order event to SNS",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}
	r.logger.Info("Order event published to SNS",
		zap.String("order_id", order.ID.String()),
		zap.String("event_type", event.Type),
	)
}
