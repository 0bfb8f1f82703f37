package models

import "time"

// CartEntry is one serialized cart line as embedded in the Stripe session
// metadata. unit_amount is recorded so reconciliation prices order items from
// the session instead of a fresh variant read; historical prices must not
// move when the catalog does.
type CartEntry struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"` // minor units
}

// Session metadata keys, replayed verbatim on the completion webhook.
const (
	MetadataCartKey       = "cart"
	MetadataUserIDKey     = "user_id"
	MetadataNeedsLabelKey = "needs_label"
)

// OrderEvent is published to SNS after a successful reconciliation.
type OrderEvent struct {
	Type        string    `json:"type"` // "order_paid"
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	NeedsLabel  bool      `json:"needs_label"`
	NeedsReview bool      `json:"needs_review"`
	Timestamp   time.Time `json:"timestamp"`
}
