// internal/services/collection_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/database"
	"github.com/urbanthreads/storefront-backend/internal/models"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

var ErrCollectionNotFound = errors.New("collection not found")

// CollectionService maintains curated product groupings. The invariant: a
// collection's cached product_count always equals the length of its
// membership list, so every membership write recomputes the count inside the
// same transaction.
type CollectionService struct {
	db *gorm.DB
}

type CreateCollectionRequest struct {
	Name        string      `json:"name" validate:"required,min=2,max=100"`
	Description string      `json:"description,omitempty"`
	ProductIDs  []uuid.UUID `json:"product_ids,omitempty"`
}

type UpdateCollectionRequest struct {
	Name        string       `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string      `json:"description,omitempty"`
	ProductIDs  *[]uuid.UUID `json:"product_ids,omitempty"`
}

func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db}
}

// dedupeProducts keeps the first occurrence of each product id, preserving
// order.
func dedupeProducts(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *CollectionService) CreateCollection(req *CreateCollectionRequest) (*models.Collection, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	productIDs := dedupeProducts(req.ProductIDs)
	if err := s.checkProductsExist(productIDs); err != nil {
		return nil, err
	}

	collection := &models.Collection{
		Name:        req.Name,
		Slug:        utils.Slugify(req.Name),
		Description: req.Description,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(collection).Error; err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return s.setMembership(tx, collection.ID, productIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.getByID(collection.ID)
}

func (s *CollectionService) GetCollectionBySlug(slug string) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("collection_products.position")
	}).Preload("Products.Product").First(&collection, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &collection, nil
}

func (s *CollectionService) ListCollections(params utils.PaginationParams) ([]models.Collection, int64, error) {
	query := s.db.Model(&models.Collection{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count collections: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "product_count"})
	query = utils.ApplyPagination(query, params)

	var collections []models.Collection
	if err := query.Find(&collections).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch collections: %w", err)
	}

	return collections, total, nil
}

func (s *CollectionService) UpdateCollection(id uuid.UUID, req *UpdateCollectionRequest) (*models.Collection, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	collection, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	if req.ProductIDs != nil {
		deduped := dedupeProducts(*req.ProductIDs)
		if err := s.checkProductsExist(deduped); err != nil {
			return nil, err
		}
		req.ProductIDs = &deduped
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if req.Name != "" {
			collection.Name = req.Name
			collection.Slug = utils.Slugify(req.Name)
		}
		if req.Description != nil {
			collection.Description = *req.Description
		}
		if err := tx.Save(collection).Error; err != nil {
			return fmt.Errorf("failed to update collection: %w", err)
		}

		if req.ProductIDs != nil {
			return s.setMembership(tx, id, *req.ProductIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getByID(id)
}

func (s *CollectionService) DeleteCollection(id uuid.UUID) error {
	if _, err := s.getByID(id); err != nil {
		return err
	}

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionProduct{}).Error; err != nil {
			return fmt.Errorf("failed to clear collection membership: %w", err)
		}
		if err := tx.Delete(&models.Collection{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		return nil
	})
}

// AddProduct appends a product to the collection if absent.
func (s *CollectionService) AddProduct(collectionID, productID uuid.UUID) (*models.Collection, error) {
	if err := s.checkProductsExist([]uuid.UUID{productID}); err != nil {
		return nil, err
	}
	if _, err := s.getByID(collectionID); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.CollectionProduct{}).
			Where("collection_id = ? AND product_id = ?", collectionID, productID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return nil
		}

		var maxPos int
		if err := tx.Model(&models.CollectionProduct{}).
			Where("collection_id = ?", collectionID).
			Select("COALESCE(MAX(position), -1)").Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("failed to read positions: %w", err)
		}

		member := models.CollectionProduct{
			CollectionID: collectionID,
			ProductID:    productID,
			Position:     maxPos + 1,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add product to collection: %w", err)
		}

		return s.recount(tx, collectionID)
	})
	if err != nil {
		return nil, err
	}

	return s.getByID(collectionID)
}

// RemoveProduct drops a product from the collection.
func (s *CollectionService) RemoveProduct(collectionID, productID uuid.UUID) (*models.Collection, error) {
	if _, err := s.getByID(collectionID); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ? AND product_id = ?", collectionID, productID).
			Delete(&models.CollectionProduct{}).Error; err != nil {
			return fmt.Errorf("failed to remove product from collection: %w", err)
		}
		return s.recount(tx, collectionID)
	})
	if err != nil {
		return nil, err
	}

	return s.getByID(collectionID)
}

// removeProductEverywhere strips a deleted product out of every collection it
// belongs to, recounting each affected collection in the caller's
// transaction.
func (s *CollectionService) removeProductEverywhere(tx *gorm.DB, productID uuid.UUID) error {
	var affected []uuid.UUID
	if err := tx.Model(&models.CollectionProduct{}).
		Where("product_id = ?", productID).
		Pluck("collection_id", &affected).Error; err != nil {
		return fmt.Errorf("failed to find collections for product: %w", err)
	}

	if len(affected) == 0 {
		return nil
	}

	if err := tx.Where("product_id = ?", productID).Delete(&models.CollectionProduct{}).Error; err != nil {
		return fmt.Errorf("failed to remove product from collections: %w", err)
	}

	for _, collectionID := range affected {
		if err := s.recount(tx, collectionID); err != nil {
			return err
		}
	}
	return nil
}

// setMembership replaces the membership list wholesale, renumbering positions
// in input order.
func (s *CollectionService) setMembership(tx *gorm.DB, collectionID uuid.UUID, productIDs []uuid.UUID) error {
	if err := tx.Where("collection_id = ?", collectionID).Delete(&models.CollectionProduct{}).Error; err != nil {
		return fmt.Errorf("failed to clear collection membership: %w", err)
	}

	for i, productID := range productIDs {
		member := models.CollectionProduct{
			CollectionID: collectionID,
			ProductID:    productID,
			Position:     i,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to set collection membership: %w", err)
		}
	}

	return s.recount(tx, collectionID)
}

// recount rewrites the cached count from the membership table inside the
// same transaction as the mutation that made it stale.
func (s *CollectionService) recount(tx *gorm.DB, collectionID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.CollectionProduct{}).
		Where("collection_id = ?", collectionID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count collection members: %w", err)
	}

	if err := tx.Model(&models.Collection{}).Where("id = ?", collectionID).
		Update("product_count", count).Error; err != nil {
		return fmt.Errorf("failed to update collection count: %w", err)
	}
	return nil
}

func (s *CollectionService) getByID(id uuid.UUID) (*models.Collection, error) {
	var collection models.Collection
	if err := s.db.First(&collection, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &collection, nil
}

func (s *CollectionService) checkProductsExist(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	var count int64
	if err := s.db.Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check products: %w", err)
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%w: one or more products do not exist", ErrProductNotFound)
	}
	return nil
}
