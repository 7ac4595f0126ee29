// internal/handlers/order.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/urbanthreads/storefront-backend/internal/i18n"
	"github.com/urbanthreads/storefront-backend/internal/services"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

type OrderHandler struct {
	orderService        *services.OrderService
	notificationService *services.NotificationService
}

func NewOrderHandler(orderService *services.OrderService, notificationService *services.NotificationService) *OrderHandler {
	return &OrderHandler{
		orderService:        orderService,
		notificationService: notificationService,
	}
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.CreateOrder(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderEmpty):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderEmpty), nil)
		case errors.Is(err, services.ErrOrderProductGone):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrProductOutOfStock):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCreated),
		"order":   order,
	})
}

// GET /orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	orders, total, err := h.orderService.ListUserOrders(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	userType, _ := utils.GetUserTypeFromContext(c)

	order, err := h.orderService.GetOrder(orderID, userID, userType == "admin")
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrOrderNotOwned):
			utils.ForbiddenResponse(c, "")
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	orders, total, err := h.orderService.ListOrders(params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// PUT /admin/orders/:id/deliver
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.MarkDelivered(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	go h.notificationService.SendOrderDelivered(order)

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderDelivered),
		"order":   order,
	})
}
