package models

import "github.com/google/uuid"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Profile is owned by the identity service; this service only reads it to
// decide whether an account may buy. Never migrated or written here.
type Profile struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role string    `gorm:"type:varchar(20);not null;default:'buyer'"`
}
