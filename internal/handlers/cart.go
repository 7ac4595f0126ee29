// internal/handlers/cart.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanthreads/storefront-backend/internal/i18n"
	"github.com/urbanthreads/storefront-backend/internal/services"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// cartOwner resolves the :userId path parameter and enforces that only the
// cart's owner (or an admin) may touch it.
func (h *CartHandler) cartOwner(c *gin.Context) (uuid.UUID, bool) {
	targetID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return uuid.Nil, false
	}

	requesterID, ok := requireUserID(c)
	if !ok {
		return uuid.Nil, false
	}

	if requesterID != targetID {
		userType, _ := utils.GetUserTypeFromContext(c)
		if userType != "admin" {
			utils.ForbiddenResponse(c, "")
			return uuid.Nil, false
		}
	}

	return targetID, true
}

// GET /cart/:userId
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, cart)
}

// POST /cart/:userId/items
func (h *CartHandler) AddItems(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	var req services.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	cart, err := h.cartService.AddItems(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartUpdated),
		"cart":    cart,
	})
}

// POST /cart/:userId/merge
//
// Merges a guest cart into the user's server cart after login. The merge is
// commutative, so retrying with the same payload settles on the same lines.
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	var req services.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	cart, err := h.cartService.MergeGuestCart(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartMerged),
		"cart":    cart,
	})
}

// PUT /cart/:userId/items
func (h *CartHandler) UpdateLine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	var req services.UpdateCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	cart, err := h.cartService.UpdateLine(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCartNotFound):
			utils.NotFoundResponse(c, "cart")
		case errors.Is(err, services.ErrCartLineNotFound):
			utils.NotFoundResponse(c, "cart")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartUpdated),
		"cart":    cart,
	})
}

// DELETE /cart/:userId/items/:productId
func (h *CartHandler) RemoveLine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	size := c.Query("size")

	cart, err := h.cartService.RemoveLine(userID, productID, size)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCartNotFound), errors.Is(err, services.ErrCartLineNotFound):
			utils.NotFoundResponse(c, "cart")
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartUpdated),
		"cart":    cart,
	})
}

// DELETE /cart/:userId
func (h *CartHandler) ClearCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.cartOwner(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(userID); err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartCleared),
	})
}
