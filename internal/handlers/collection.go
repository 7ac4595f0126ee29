// internal/handlers/collection.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/urbanthreads/storefront-backend/internal/i18n"
	"github.com/urbanthreads/storefront-backend/internal/services"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
}

func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
	}
}

// GET /collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	collections, total, err := h.collectionService.ListCollections(params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(collections, total, params))
}

// GET /collections/:slug
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	collection, err := h.collectionService.GetCollectionBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			utils.NotFoundResponse(c, "collection")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, collection)
}

// POST /admin/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	collection, err := h.collectionService.CreateCollection(&req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyCollectionCreated),
		"collection": collection,
	})
}

// PUT /admin/collections/:id
func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	collectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	collection, err := h.collectionService.UpdateCollection(collectionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCollectionNotFound):
			utils.NotFoundResponse(c, "collection")
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyCollectionUpdated),
		"collection": collection,
	})
}

// DELETE /admin/collections/:id
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	collectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.collectionService.DeleteCollection(collectionID); err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			utils.NotFoundResponse(c, "collection")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCollectionDeleted),
	})
}

// POST /admin/collections/:id/products/:productId
func (h *CollectionHandler) AddProduct(c *gin.Context) {
	collectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	collection, err := h.collectionService.AddProduct(collectionID, productID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCollectionNotFound):
			utils.NotFoundResponse(c, "collection")
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, collection)
}

// DELETE /admin/collections/:id/products/:productId
func (h *CollectionHandler) RemoveProduct(c *gin.Context) {
	collectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	collection, err := h.collectionService.RemoveProduct(collectionID, productID)
	if err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			utils.NotFoundResponse(c, "collection")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, collection)
}
