// internal/handlers/payment.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanthreads/storefront-backend/internal/config"
	"github.com/urbanthreads/storefront-backend/internal/gateway"
	"github.com/urbanthreads/storefront-backend/internal/i18n"
	"github.com/urbanthreads/storefront-backend/internal/services"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	config         *config.Config
}

func NewPaymentHandler(paymentService *services.PaymentService, config *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		config:         config,
	}
}

// POST /payments/initialize
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	resp, err := h.paymentService.InitializePayment(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrProviderUnavailable):
			utils.BadGatewayResponse(c, "")
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrOrderNotOwned):
			utils.ForbiddenResponse(c, "")
		case errors.Is(err, services.ErrOrderAlreadyPaid):
			utils.ConflictResponse(c, err.Error())
		case errors.Is(err, services.ErrOrderProductGone):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrProductOutOfStock):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyPaymentInitialized),
		"auth_url":  resp.AuthURL,
		"reference": resp.Reference,
		"order_id":  resp.OrderID,
	})
}

// GET /payments/verify/:reference
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	reference := c.Param("reference")
	if reference == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "reference"), nil)
		return
	}

	order, err := h.paymentService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		h.writeVerifyError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentSuccess),
		"order":   order,
	})
}

// GET /payments/callback
//
// The provider redirects the shopper's browser here after checkout. The
// reference is verified server side and the browser is forwarded to the
// frontend result page; the redirect never trusts query parameters beyond the
// reference itself.
func (h *PaymentHandler) PaymentCallback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}

	if reference == "" {
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/checkout/failure", h.config.Frontend.BaseURL))
		return
	}

	order, err := h.paymentService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/checkout/failure?reference=%s", h.config.Frontend.BaseURL, reference))
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/checkout/success?order_id=%s", h.config.Frontend.BaseURL, order.ID))
}

// POST /payments/intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	intent, err := h.paymentService.CreatePaymentIntent(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrOrderNotOwned):
			utils.ForbiddenResponse(c, "")
		case errors.Is(err, services.ErrOrderAlreadyPaid):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, intent)
}

// POST /payments/confirm
func (h *PaymentHandler) ConfirmCardPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.ConfirmCardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.paymentService.ConfirmCardPayment(userID, &req)
	if err != nil {
		h.writeVerifyError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentSuccess),
		"order":   order,
	})
}

// POST /admin/payments/refund
func (h *PaymentHandler) RefundOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.paymentService.RefundOrder(&req); err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrOrderNotPaid):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentRefunded),
	})
}

// writeVerifyError maps a verification failure to its status code. Security
// failures deliberately do not reveal which check tripped beyond the class of
// error.
func (h *PaymentHandler) writeVerifyError(c *gin.Context, lang string, err error) {
	switch {
	case errors.Is(err, gateway.ErrProviderUnavailable):
		utils.BadGatewayResponse(c, "")
	case errors.Is(err, services.ErrPaymentNotSuccessful):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentFailed), nil)
	case errors.Is(err, services.ErrNoOrderID):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentFailed), nil)
	case errors.Is(err, services.ErrPaymentUserMismatch):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPaymentUnauthorized))
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrOrderNotOwned):
		utils.ForbiddenResponse(c, "")
	default:
		utils.InternalErrorResponse(c, "")
	}
}
