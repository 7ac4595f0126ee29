// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/database"
	"github.com/urbanthreads/storefront-backend/internal/models"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

// Pricing rules. Prices are always resolved from the catalog on the server;
// client-supplied prices are never trusted.
const (
	FreeShippingThreshold = 100.0
	FlatShippingPrice     = 10.0
	TaxRate               = 0.15
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotOwned     = errors.New("order does not belong to this user")
	ErrOrderEmpty        = errors.New("order must contain at least one item")
	ErrOrderProductGone  = errors.New("order references a product that does not exist")
	ErrProductOutOfStock = errors.New("product is out of stock")
)

type OrderService struct {
	db *gorm.DB
}

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []OrderItemInput       `json:"items" validate:"required,min=1,dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required,oneof=gateway card"`
}

type OrderTotals struct {
	ItemsPrice    float64 `json:"items_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TaxPrice      float64 `json:"tax_price"`
	TotalPrice    float64 `json:"total_price"`
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CalculateTotals derives shipping, tax and total from the items subtotal.
// Shipping is free strictly above the threshold; tax and total are rounded
// to two decimal places.
func CalculateTotals(itemsPrice float64) OrderTotals {
	shipping := FlatShippingPrice
	if itemsPrice > FreeShippingThreshold {
		shipping = 0
	}

	tax := round2(itemsPrice * TaxRate)

	return OrderTotals{
		ItemsPrice:    round2(itemsPrice),
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    round2(itemsPrice + shipping + tax),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateOrder snapshots the requested items from the catalog and persists an
// unpaid order. Any unknown product rejects the whole order; there are no
// partial orders.
func (s *OrderService) CreateOrder(userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if len(req.Items) == 0 {
		return nil, ErrOrderEmpty
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}

	var products []models.Product
	if err := s.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	catalog := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		catalog[products[i].ID] = &products[i]
	}

	var itemsPrice float64
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrOrderProductGone, line.ProductID)
		}
		if !product.InStock {
			return nil, fmt.Errorf("%w: %s", ErrProductOutOfStock, product.Name)
		}

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     image,
			Size:      line.Size,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
		itemsPrice += product.Price * float64(line.Quantity)
	}

	totals := CalculateTotals(itemsPrice)

	order := &models.Order{
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: models.JSONB(req.ShippingAddress),
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
	}

	if err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Create(order).Error
	}); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

func (s *OrderService) GetOrder(orderID, requesterID uuid.UUID, isAdmin bool) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, ErrOrderNotOwned
	}

	return &order, nil
}

func (s *OrderService) ListUserOrders(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "total_price"})
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) ListOrders(params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "total_price"})
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// MarkDelivered flips the delivery flag. Delivery status is independent of
// payment status.
func (s *OrderService) MarkDelivered(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now

	if err := s.db.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return &order, nil
}
