// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/cache"
	"github.com/urbanthreads/storefront-backend/internal/database"
	"github.com/urbanthreads/storefront-backend/internal/models"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrReviewExists     = errors.New("user has already reviewed this product")
)

const (
	cacheKeyFeatured = "catalog:featured"
)

type CatalogService struct {
	db          *gorm.DB
	cache       *cache.Cache
	collections *CollectionService
}

type CreateProductRequest struct {
	Name        string     `json:"name" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"required,min=10"`
	Brand       string     `json:"brand,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Price       float64    `json:"price" validate:"required,min=0.01"`
	Sizes       []string   `json:"sizes,omitempty"`
	Images      []string   `json:"images" validate:"required,min=1"`
	InStock     *bool      `json:"in_stock,omitempty"`
	IsFeatured  bool       `json:"is_featured,omitempty"`
}

type UpdateProductRequest struct {
	Name        string     `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description string     `json:"description,omitempty" validate:"omitempty,min=10"`
	Brand       string     `json:"brand,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,min=0.01"`
	Sizes       []string   `json:"sizes,omitempty"`
	Images      []string   `json:"images,omitempty" validate:"omitempty,min=1"`
	InStock     *bool      `json:"in_stock,omitempty"`
	IsFeatured  *bool      `json:"is_featured,omitempty"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment,omitempty"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func NewCatalogService(db *gorm.DB, c *cache.Cache, collections *CollectionService) *CatalogService {
	return &CatalogService{
		db:          db,
		cache:       c,
		collections: collections,
	}
}

func productCacheKey(id uuid.UUID) string {
	return "catalog:product:" + id.String()
}

// CreateProduct is an admin-only path; it is the only way a price enters the
// catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Sizes:       req.Sizes,
		Images:      req.Images,
		InStock:     inStock,
		IsFeatured:  req.IsFeatured,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.cache.Delete(ctx, cacheKeyFeatured)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if s.cache.GetJSON(ctx, productCacheKey(id), &product) {
		return &product, nil
	}

	if err := s.db.Preload("Category").Preload("Reviews.User").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.cache.SetJSON(ctx, productCacheKey(id), &product)
	return &product, nil
}

func (s *CatalogService) ListProducts(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if params.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "price", "rating", "name"})
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *CatalogService) GetFeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if s.cache.GetJSON(ctx, cacheKeyFeatured, &products) {
		return products, nil
	}

	if err := s.db.Where("is_featured = ? AND in_stock = ?", true, true).
		Order("created_at DESC").Limit(12).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch featured products: %w", err)
	}

	s.cache.SetJSON(ctx, cacheKeyFeatured, products)
	return products, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Brand != "" {
		product.Brand = req.Brand
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Sizes != nil {
		product.Sizes = req.Sizes
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.cache.Delete(ctx, productCacheKey(id), cacheKeyFeatured)
	return &product, nil
}

// DeleteProduct removes a product and, in the same transaction, its
// membership in every collection, keeping each collection's cached count
// equal to its membership length.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.collections.removeProductEverywhere(tx, id); err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete product reviews: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove product from carts: %w", err)
		}

		if err := tx.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Delete(ctx, productCacheKey(id), cacheKeyFeatured)
	return nil
}

// AddReview records one review per user per product and recomputes the
// product's rating aggregate in the same transaction.
func (s *CatalogService) AddReview(ctx context.Context, productID, userID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var existing models.Review
	err := s.db.Where("product_id = ? AND user_id = ?", productID, userID).First(&existing).Error
	if err == nil {
		return nil, ErrReviewExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		var agg struct {
			Count int64
			Avg   float64
		}
		if err := tx.Model(&models.Review{}).
			Select("COUNT(*) as count, COALESCE(AVG(rating), 0) as avg").
			Where("product_id = ?", productID).
			Scan(&agg).Error; err != nil {
			return fmt.Errorf("failed to aggregate reviews: %w", err)
		}

		return tx.Model(&models.Product{}).Where("id = ?", productID).
			Updates(map[string]interface{}{
				"rating":       agg.Avg,
				"review_count": agg.Count,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, productCacheKey(productID))
	return review, nil
}

func (s *CatalogService) CreateCategory(req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category := &models.Category{
		Name: req.Name,
		Slug: utils.Slugify(req.Name),
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *CatalogService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}
