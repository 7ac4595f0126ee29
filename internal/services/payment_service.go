// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/config"
	"github.com/urbanthreads/storefront-backend/internal/gateway"
	"github.com/urbanthreads/storefront-backend/internal/models"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

var (
	ErrPaymentNotSuccessful = errors.New("payment was not successful")
	ErrNoOrderID            = errors.New("no order id in provider metadata")
	ErrPaymentUserMismatch  = errors.New("payment metadata user does not match order owner")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrOrderNotPaid         = errors.New("order has not been paid")
)

// PaymentProvider is the redirect gateway's transaction API.
type PaymentProvider interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyResponse, error)
}

// RateSource resolves a display-to-settlement currency rate.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// OrderNotifier delivers the post-payment confirmation email.
type OrderNotifier interface {
	SendOrderConfirmation(order *models.Order) error
}

type PaymentService struct {
	db       *gorm.DB
	cfg      *config.Config
	provider PaymentProvider
	rates    RateSource
	notifier OrderNotifier
	orders   *OrderService
	carts    *CartService
}

type InitializePaymentRequest struct {
	Email           string                 `json:"email" validate:"omitempty,email"`
	OrderID         *uuid.UUID             `json:"order_id,omitempty"`
	Items           []OrderItemInput       `json:"items,omitempty" validate:"omitempty,dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address,omitempty"`
}

type InitializePaymentResponse struct {
	AuthURL   string    `json:"auth_url"`
	Reference string    `json:"reference"`
	OrderID   uuid.UUID `json:"order_id"`
}

type CreateIntentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type ConfirmCardPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	OrderID         uuid.UUID `json:"order_id" validate:"required"`
}

type RefundRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Reason  string    `json:"reason" validate:"required"`
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, provider PaymentProvider, rates RateSource, notifier OrderNotifier, orders *OrderService, carts *CartService) *PaymentService {
	// Initialize Stripe for the card rail
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:       db,
		cfg:      cfg,
		provider: provider,
		rates:    rates,
		notifier: notifier,
		orders:   orders,
		carts:    carts,
	}
}

// settlementAmount converts an order total in the display currency to the
// provider's settlement currency, in minor units. A failed rate lookup
// degrades to the configured fallback rate; checkout never fails on the
// currency API.
func (s *PaymentService) settlementAmount(ctx context.Context, total float64) int64 {
	rate, err := s.rates.Rate(ctx, s.cfg.Payment.DisplayCurrency, s.cfg.Payment.SettlementCurrency)
	if err != nil {
		logrus.WithError(err).WithField("fallback_rate", s.cfg.Payment.FallbackRate).
			Warn("Currency lookup failed, using fallback rate")
		rate = s.cfg.Payment.FallbackRate
	}

	return ToMinorUnits(total * rate)
}

// ToMinorUnits rounds an amount to the provider's integer minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// InitializePayment creates (or reuses) an unpaid order and asks the provider
// for a redirect authorization URL. A provider failure surfaces to the caller;
// the order is kept so the same checkout can be retried with its order_id.
func (s *PaymentService) InitializePayment(ctx context.Context, userID uuid.UUID, req *InitializePaymentRequest) (*InitializePaymentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}

	var order *models.Order
	if req.OrderID != nil {
		existing, err := s.orders.GetOrder(*req.OrderID, userID, false)
		if err != nil {
			return nil, err
		}
		if existing.IsPaid {
			return nil, ErrOrderAlreadyPaid
		}
		order = existing
	} else {
		created, err := s.orders.CreateOrder(userID, &CreateOrderRequest{
			Items:           req.Items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   models.PaymentMethodGateway,
		})
		if err != nil {
			return nil, err
		}
		order = created
	}

	reference, err := utils.GeneratePaymentReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	callCtx, cancel := s.providerContext(ctx)
	defer cancel()

	initResp, err := s.provider.Initialize(callCtx, gateway.InitializeRequest{
		Email:     email,
		Amount:    s.settlementAmount(ctx, order.TotalPrice),
		Currency:  s.cfg.Payment.SettlementCurrency,
		Reference: reference,
		Metadata: gateway.Metadata{
			OrderID: order.ID.String(),
			UserID:  userID.String(),
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Payment initialization failed")
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_reference", initResp.Reference).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment reference: %w", err)
	}

	return &InitializePaymentResponse{
		AuthURL:   initResp.AuthorizationURL,
		Reference: initResp.Reference,
		OrderID:   order.ID,
	}, nil
}

// VerifyPayment confirms a provider reference and applies its effect to local
// order and cart state exactly once. The paid transition is an atomic
// conditional update, so replayed or concurrent verifications of the same
// reference are read-only after the first success. Cart clearing and the
// confirmation email are best-effort: the provider is the source of truth for
// payment, and nothing here may undo a confirmed payment.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*models.Order, error) {
	callCtx, cancel := s.providerContext(ctx)
	defer cancel()

	vr, err := s.provider.Verify(callCtx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if vr.Status != "success" {
		return nil, fmt.Errorf("%w: provider status %q", ErrPaymentNotSuccessful, vr.Status)
	}

	if vr.Metadata.OrderID == "" {
		return nil, ErrNoOrderID
	}
	orderID, err := uuid.Parse(vr.Metadata.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNoOrderID, vr.Metadata.OrderID)
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// A payment may only confirm the order of the user who initiated it.
	if vr.Metadata.UserID != order.UserID.String() {
		return nil, ErrPaymentUserMismatch
	}

	applied, err := s.markOrderPaid(&order, reference, models.JSONB{
		"reference": vr.Reference,
		"amount":    vr.Amount,
		"currency":  vr.Currency,
		"channel":   vr.Channel,
		"paid_at":   vr.PaidAt,
		"status":    vr.Status,
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.settleAfterPayment(&order)
	}

	if err := s.db.Preload("Items").First(&order, "id = ?", order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	return &order, nil
}

// markOrderPaid performs the unpaid-to-paid transition. The WHERE clause on
// is_paid makes the update apply at most once across retries and concurrent
// calls; it reports whether this call was the one that applied it.
func (s *PaymentService) markOrderPaid(order *models.Order, reference string, result models.JSONB) (bool, error) {
	now := time.Now()
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", order.ID, false).
		Updates(map[string]interface{}{
			"is_paid":           true,
			"paid_at":           now,
			"payment_reference": reference,
			"payment_result":    result,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}

// settleAfterPayment runs the side effects of a freshly confirmed payment.
// Failures are logged and swallowed.
func (s *PaymentService) settleAfterPayment(order *models.Order) {
	if err := s.carts.Clear(order.UserID); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to clear cart after payment")
	}

	if err := s.notifier.SendOrderConfirmation(order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to send order confirmation email")
	}
}

func (s *PaymentService) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.Payment.ProviderTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// CreatePaymentIntent starts a Stripe card payment for an existing unpaid
// order and returns the client secret for the frontend to confirm.
func (s *PaymentService) CreatePaymentIntent(userID uuid.UUID, req *CreateIntentRequest) (map[string]interface{}, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.orders.GetOrder(req.OrderID, userID, false)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, ErrOrderAlreadyPaid
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(order.TotalPrice)),
		Currency: stripe.String(s.cfg.Payment.DisplayCurrency),
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("user_id", userID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return map[string]interface{}{
		"client_secret": pi.ClientSecret,
		"payment_id":    pi.ID,
		"status":        string(pi.Status),
		"order_id":      order.ID,
	}, nil
}

// ConfirmCardPayment applies a succeeded Stripe intent to its order, through
// the same single-shot paid transition as the redirect rail.
func (s *PaymentService) ConfirmCardPayment(userID uuid.UUID, req *ConfirmCardPaymentRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if pi.Metadata["order_id"] != req.OrderID.String() {
		return nil, ErrNoOrderID
	}

	order, err := s.orders.GetOrder(req.OrderID, userID, false)
	if err != nil {
		return nil, err
	}

	if pi.Metadata["user_id"] != order.UserID.String() {
		return nil, ErrPaymentUserMismatch
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status %q", ErrPaymentNotSuccessful, pi.Status)
	}

	applied, err := s.markOrderPaid(order, pi.ID, models.JSONB{
		"reference": pi.ID,
		"amount":    pi.Amount,
		"currency":  string(pi.Currency),
		"channel":   "card",
		"status":    string(pi.Status),
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.settleAfterPayment(order)
	}

	if err := s.db.Preload("Items").First(order, "id = ?", order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	return order, nil
}

// RefundOrder refunds a paid card order through Stripe.
func (s *PaymentService) RefundOrder(req *RefundRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !order.IsPaid {
		return ErrOrderNotPaid
	}
	if order.PaymentMethod != models.PaymentMethodCard || order.PaymentReference == "" {
		return errors.New("only card payments can be refunded automatically")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.PaymentReference),
		Reason:        stripe.String("requested_by_customer"),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to process refund: %w", err)
	}

	result := order.PaymentResult
	if result == nil {
		result = models.JSONB{}
	}
	result["refunded"] = true
	result["refund_reason"] = req.Reason

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_result", result).Error; err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	return nil
}
