package models

import "time"

// Variant is one purchasable variant of a product (specific size/condition).
// Stock is only ever mutated through VariantRepository.DecrementStock; no
// other code path may write it.
type Variant struct {
	SKU       string  `gorm:"primaryKey;type:varchar(64)" json:"sku"`
	Name      string  `gorm:"not null" json:"name"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Stock     int     `gorm:"not null;check:stock >= 0" json:"stock"`
	// Pipe-separated list of image URLs as ingested from the catalog feed.
	// May contain placeholder junk ("nan", "null", empty segments).
	Images    string    `gorm:"type:text" json:"images"`
	Sellable  bool      `gorm:"not null;default:true" json:"sellable"`
	SellerID  *string   `gorm:"type:varchar(64);index" json:"seller_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
