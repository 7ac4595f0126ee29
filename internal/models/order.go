// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is an immutable snapshot of a purchase taken from the catalog at
// creation time. Only the payment and delivery status fields change after
// creation, and the paid transition is applied at most once.
type Order struct {
	BaseModel
	UserID uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Items  []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	ShippingAddress JSONB         `json:"shipping_address" gorm:"type:jsonb;not null"`
	PaymentMethod   PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`

	ItemsPrice    float64 `json:"items_price" gorm:"type:decimal(10,2);not null"`
	ShippingPrice float64 `json:"shipping_price" gorm:"type:decimal(10,2);not null"`
	TaxPrice      float64 `json:"tax_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice    float64 `json:"total_price" gorm:"type:decimal(10,2);not null"`

	IsPaid           bool       `json:"is_paid" gorm:"default:false;index"`
	PaidAt           *time.Time `json:"paid_at"`
	PaymentReference string     `json:"payment_reference" gorm:"size:255;index"`
	PaymentResult    JSONB      `json:"payment_result" gorm:"type:jsonb"`

	IsDelivered bool       `json:"is_delivered" gorm:"default:false"`
	DeliveredAt *time.Time `json:"delivered_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Image     string    `json:"image" gorm:"size:512"`
	Size      string    `json:"size" gorm:"size:20"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
}
