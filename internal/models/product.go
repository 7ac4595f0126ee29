// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:120;not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Product struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Brand       string         `json:"brand" gorm:"size:100"`
	CategoryID  *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	Sizes       pq.StringArray `json:"sizes" gorm:"type:text[]"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	InStock     bool           `json:"in_stock" gorm:"default:true"`
	IsFeatured  bool           `json:"is_featured" gorm:"default:false;index"`
	Rating      float64        `json:"rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount int64          `json:"review_count" gorm:"default:0"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Reviews  []Review  `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}

type Review struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index:idx_reviews_product_user,unique"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_reviews_product_user,unique"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
