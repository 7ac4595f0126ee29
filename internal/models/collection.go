// internal/models/collection.go
package models

import (
	"github.com/google/uuid"
)

// Collection is a curated, ordered grouping of products. ProductCount is a
// cached copy of the membership length and is recomputed inside the same
// transaction as every membership mutation.
type Collection struct {
	BaseModel
	Name         string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Slug         string `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Description  string `json:"description" gorm:"type:text"`
	ProductCount int64  `json:"product_count" gorm:"default:0"`

	Products []CollectionProduct `json:"products,omitempty" gorm:"foreignKey:CollectionID"`
}

type CollectionProduct struct {
	CollectionID uuid.UUID `json:"collection_id" gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;primaryKey;index"`
	Position     int       `json:"position" gorm:"not null"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
