package repository

import (
	"context"

	"checkout-service/config"
	"checkout-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository persists orders created by payment reconciliation.
type OrderRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	// CreatePaidOrder inserts the order with its items and decrements stock
	// for every item inside one transaction. Items whose decrement condition
	// fails are handled per the configured oversold policy and flagged on the
	// passed order in place. A gorm.ErrDuplicatedKey return means another
	// delivery of the same session already committed.
	CreatePaidOrder(ctx context.Context, order *models.Order) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db             *gorm.DB
	oversoldPolicy string
}

func NewGormOrderRepository(db *gorm.DB, oversoldPolicy string) OrderRepository {
	return &GormOrderRepository{db: db, oversoldPolicy: oversoldPolicy}
}

func (r *GormOrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) CreatePaidOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range order.OrderItems {
			it := &order.OrderItems[i]

			ok, err := decrementStock(tx, it.SKU, it.Quantity)
			if err != nil {
				return err
			}
			if ok {
				continue
			}

			// Stock dropped below the requested quantity between checkout
			// validation and payment confirmation: a competing buyer paid
			// first. The payment already happened, so the item is flagged
			// instead of failing the order.
			it.Oversold = true
			order.NeedsReview = true

			if r.oversoldPolicy == config.OversoldPolicyClamp {
				took, err := r.clampDecrement(tx, it.SKU, it.Quantity)
				if err != nil {
					return err
				}
				it.Quantity = took
			}
		}

		// Items are inserted via the association; the unique index on
		// stripe_session_id rejects a concurrent duplicate delivery here.
		return tx.Create(order).Error
	})
}

// clampDecrement takes whatever stock is left for the sku, under a row lock
// so the read and the decrement cannot interleave with a competing writer.
func (r *GormOrderRepository) clampDecrement(tx *gorm.DB, sku string, requested int) (int, error) {
	var v models.Variant
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sku = ?", sku).
		First(&v).Error; err != nil {
		return 0, err
	}

	take := v.Stock
	if take > requested {
		take = requested
	}
	if take == 0 {
		return 0, nil
	}

	ok, err := decrementStock(tx, sku, take)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Row is locked, so this only happens if stock moved outside the
		// decrement path; surface it rather than guessing.
		return 0, gorm.ErrInvalidData
	}
	return take, nil
}
