// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
)

// Cart holds a user's intended purchase lines. The unique index on UserID
// enforces one cart per user; lines are unique per (product, size) and adds
// merge into the existing line instead of appending a duplicate.
type Cart struct {
	BaseModel
	UserID uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

type CartItem struct {
	BaseModel
	CartID    uuid.UUID `json:"cart_id" gorm:"type:uuid;not null;index:idx_cart_items_line,unique"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index:idx_cart_items_line,unique"`
	Size      string    `json:"size" gorm:"size:20;not null;index:idx_cart_items_line,unique"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
