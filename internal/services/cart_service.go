// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/urbanthreads/storefront-backend/internal/database"
	"github.com/urbanthreads/storefront-backend/internal/models"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartLineNotFound = errors.New("cart line not found")
)

type CartService struct {
	db *gorm.DB
}

// CartLine is one intended purchase: a product in a size, with a quantity.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type AddToCartRequest struct {
	Items []CartLine `json:"items" validate:"required,min=1,dive"`
}

type UpdateCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

type lineKey struct {
	productID uuid.UUID
	size      string
}

// MergeCartLines merges incoming lines into existing ones. Lines with the
// same (product, size) collapse into a single line with summed quantities;
// the merge is commutative and never produces duplicates. Existing lines
// keep their relative order, new lines append in input order.
func MergeCartLines(existing, incoming []CartLine) []CartLine {
	merged := make([]CartLine, len(existing))
	copy(merged, existing)

	index := make(map[lineKey]int, len(merged))
	for i, line := range merged {
		index[lineKey{line.ProductID, line.Size}] = i
	}

	for _, line := range incoming {
		key := lineKey{line.ProductID, line.Size}
		if i, ok := index[key]; ok {
			merged[i].Quantity += line.Quantity
		} else {
			index[key] = len(merged)
			merged = append(merged, line)
		}
	}

	return merged
}

func (s *CartService) GetCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items.Product").First(&cart, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Carts are created lazily on first add; an absent cart is empty.
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &cart, nil
}

// AddItems merges the given lines into the user's cart. The read-modify-write
// runs under a row lock on the cart so concurrent adds for the same user
// cannot lose updates.
func (s *CartService) AddItems(userID uuid.UUID, req *AddToCartRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Reject unknown products before touching the cart.
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.ProductID)
	}
	var count int64
	if err := s.db.Model(&models.Product{}).Where("id IN ?", ids).Distinct("id").Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check products: %w", err)
	}
	if int(count) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: one or more products do not exist", ErrOrderProductGone)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID)
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("created_at").Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load cart items: %w", err)
		}

		existing := make([]CartLine, 0, len(items))
		byKey := make(map[lineKey]*models.CartItem, len(items))
		for i := range items {
			item := &items[i]
			existing = append(existing, CartLine{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
			byKey[lineKey{item.ProductID, item.Size}] = item
		}

		for _, line := range MergeCartLines(existing, req.Items) {
			if item, ok := byKey[lineKey{line.ProductID, line.Size}]; ok {
				if item.Quantity != line.Quantity {
					if err := tx.Model(item).Update("quantity", line.Quantity).Error; err != nil {
						return fmt.Errorf("failed to update cart line: %w", err)
					}
				}
				continue
			}

			newItem := models.CartItem{
				CartID:    cart.ID,
				ProductID: line.ProductID,
				Size:      line.Size,
				Quantity:  line.Quantity,
			}
			if err := tx.Create(&newItem).Error; err != nil {
				return fmt.Errorf("failed to add cart line: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// MergeGuestCart folds a guest's local cart into the user's server-side cart
// on sign-in. Same merge semantics as AddItems.
func (s *CartService) MergeGuestCart(userID uuid.UUID, req *AddToCartRequest) (*models.Cart, error) {
	return s.AddItems(userID, req)
}

// UpdateLine sets a line's quantity directly (no summing).
func (s *CartService) UpdateLine(userID uuid.UUID, req *UpdateCartLineRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		cart, err := findCartLocked(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ? AND size = ?", cart.ID, req.ProductID, req.Size).
			Update("quantity", req.Quantity)
		if result.Error != nil {
			return fmt.Errorf("failed to update cart line: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCartLineNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// RemoveLine deletes one (product, size) line from the cart.
func (s *CartService) RemoveLine(userID, productID uuid.UUID, size string) (*models.Cart, error) {
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		cart, err := findCartLocked(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Where("cart_id = ? AND product_id = ? AND size = ?", cart.ID, productID, size).
			Delete(&models.CartItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove cart line: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCartLineNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// Clear empties the user's cart. Clearing an absent or already-empty cart is
// a no-op, not an error.
func (s *CartService) Clear(userID uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		cart, err := findCartLocked(tx, userID)
		if err != nil {
			if errors.Is(err, ErrCartNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// lockCart returns the user's cart row locked FOR UPDATE, creating it first
// if the user has none yet.
func lockCart(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to open cart: %w", err)
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	return &cart, nil
}

// findCartLocked locks an existing cart without creating one.
func findCartLocked(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	return &cart, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
