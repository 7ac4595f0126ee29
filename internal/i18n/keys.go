// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Users
	KeyUserNotFound = "user.not_found"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"
	KeyReviewCreated     = "review.created"
	KeyReviewExists      = "review.exists"

	// Collections
	KeyCollectionCreated  = "collection.created"
	KeyCollectionUpdated  = "collection.updated"
	KeyCollectionDeleted  = "collection.deleted"
	KeyCollectionNotFound = "collection.not_found"

	// Cart
	KeyCartUpdated      = "cart.updated"
	KeyCartCleared      = "cart.cleared"
	KeyCartMerged       = "cart.merged"
	KeyCartNotFound     = "cart.not_found"
	KeyCartLineNotFound = "cart.line_not_found"

	// Orders
	KeyOrderCreated   = "order.created"
	KeyOrderNotFound  = "order.not_found"
	KeyOrderEmpty     = "order.empty"
	KeyOrderDelivered = "order.delivered"

	// Payments
	KeyPaymentInitialized  = "payment.initialized"
	KeyPaymentSuccess      = "payment.success"
	KeyPaymentFailed       = "payment.failed"
	KeyPaymentNotFound     = "payment.not_found"
	KeyPaymentUnauthorized = "payment.unauthorized"
	KeyPaymentRefunded     = "payment.refunded"
)
