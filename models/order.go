package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status values. An order is only ever created once payment has been
// confirmed, so "pending" exists for manually created orders and backfills.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCanceled  = "canceled"
	OrderStatusFulfilled = "fulfilled"
)

type Order struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	// Nil for guest checkout.
	UserID *uuid.UUID `gorm:"type:uuid;index"`
	// Stripe checkout session that paid for this order. The unique index is
	// what makes webhook redelivery idempotent under concurrency.
	StripeSessionID string `gorm:"uniqueIndex;not null"`
	Status          string `gorm:"type:varchar(20);not null;default:'pending'"`
	Amount          int64  `gorm:"not null"` // minor units
	Currency        string `gorm:"type:varchar(10);not null"`
	NeedsLabel      bool   `gorm:"not null;default:false"`
	// Set when at least one item could not be decremented at reconciliation
	// time; operator follow-up required (partial refund or restock).
	NeedsReview     bool   `gorm:"not null;default:false"`
	ShippingName    string `gorm:"type:varchar(255)"`
	ShippingAddress string `gorm:"type:text"`
	ShippingCity    string `gorm:"type:varchar(255)"`
	ShippingZip     string `gorm:"type:varchar(32)"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
	OrderItems      []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU     string    `gorm:"type:varchar(64);not null;index"`
	Quantity int      `gorm:"not null"`
	// Price captured at purchase time, minor units. Immutable; later catalog
	// price changes must not touch it.
	UnitPrice int64 `gorm:"not null"`
	// True when stock had been exhausted by a competing paid order between
	// checkout-time validation and payment confirmation.
	Oversold bool `gorm:"not null;default:false"`
}
