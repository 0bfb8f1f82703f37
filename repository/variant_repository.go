package repository

import (
	"context"

	"checkout-service/models"

	"gorm.io/gorm"
)

// VariantRepository is the authoritative inventory store.
type VariantRepository interface {
	FindBySKUs(ctx context.Context, skus []string) ([]models.Variant, error)
	// DecrementStock applies `stock = stock - quantity` only if
	// `stock >= quantity`, as a single conditional statement. Returns false
	// when the condition failed. This is the only write path for stock.
	DecrementStock(ctx context.Context, sku string, quantity int) (bool, error)
}

type GormVariantRepository struct {
	db *gorm.DB
}

func NewGormVariantRepository(db *gorm.DB) VariantRepository {
	return &GormVariantRepository{db: db}
}

func (r *GormVariantRepository) FindBySKUs(ctx context.Context, skus []string) ([]models.Variant, error) {
	var variants []models.Variant
	if err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *GormVariantRepository) DecrementStock(ctx context.Context, sku string, quantity int) (bool, error) {
	return decrementStock(r.db.WithContext(ctx), sku, quantity)
}

// decrementStock is the single compare-and-decrement statement shared with
// the order repository's reconciliation transaction. Correctness under
// concurrent webhooks and multiple service instances rests on this being one
// conditional UPDATE at the storage layer, not a read-then-write.
func decrementStock(db *gorm.DB, sku string, quantity int) (bool, error) {
	res := db.Model(&models.Variant{}).
		Where("sku = ? AND stock >= ?", sku, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
