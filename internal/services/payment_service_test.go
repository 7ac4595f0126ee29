// internal/services/payment_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/urbanthreads/storefront-backend/internal/config"
	"github.com/urbanthreads/storefront-backend/internal/gateway"
	"github.com/urbanthreads/storefront-backend/internal/models"
)

type fakeProvider struct {
	initResp   *gateway.InitializeResponse
	initErr    error
	verifyResp *gateway.VerifyResponse
	verifyErr  error
}

func (p *fakeProvider) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResponse, error) {
	return p.initResp, p.initErr
}

func (p *fakeProvider) Verify(ctx context.Context, reference string) (*gateway.VerifyResponse, error) {
	return p.verifyResp, p.verifyErr
}

type fakeRates struct {
	rate float64
	err  error
}

func (r *fakeRates) Rate(ctx context.Context, from, to string) (float64, error) {
	return r.rate, r.err
}

type fakeNotifier struct {
	confirmations []uuid.UUID
}

func (n *fakeNotifier) SendOrderConfirmation(order *models.Order) error {
	n.confirmations = append(n.confirmations, order.ID)
	return nil
}

func newPaymentTestService(t *testing.T, provider PaymentProvider, rates RateSource) (*PaymentService, sqlmock.Sqlmock, *fakeNotifier) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Payment: config.PaymentConfig{
			ProviderTimeout:    2,
			DisplayCurrency:    "USD",
			SettlementCurrency: "NGN",
			FallbackRate:       1500.0,
		},
	}

	notifier := &fakeNotifier{}
	svc := NewPaymentService(db, cfg, provider, rates, notifier, NewOrderService(db), NewCartService(db))
	return svc, mock, notifier
}

func orderRow(orderID, userID uuid.UUID, isPaid bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "is_paid", "total_price"}).
		AddRow(orderID.String(), userID.String(), isPaid, 115.0)
}

func TestVerifyPaymentAppliesOnce(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()

	provider := &fakeProvider{
		verifyResp: &gateway.VerifyResponse{
			Status:    "success",
			Reference: "ut_ref1",
			Amount:    17250000,
			Currency:  "NGN",
			Channel:   "card",
			Metadata:  gateway.Metadata{OrderID: orderID.String(), UserID: userID.String()},
		},
	}

	svc, mock, notifier := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	// First verification: paid transition applies, cart clears, email goes out.
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(orderRow(orderID, userID, false))
	mock.ExpectExec(`UPDATE "orders" SET .+ WHERE id = \$\d+ AND is_paid = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "carts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(orderRow(orderID, userID, true))
	mock.ExpectQuery(`SELECT \* FROM "order_items"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	order, err := svc.VerifyPayment(context.Background(), "ut_ref1")
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	assert.Len(t, notifier.confirmations, 1)

	// Replay of the same reference: conditional update matches no rows, so no
	// side effects run again.
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(orderRow(orderID, userID, true))
	mock.ExpectExec(`UPDATE "orders" SET .+ WHERE id = \$\d+ AND is_paid = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(orderRow(orderID, userID, true))
	mock.ExpectQuery(`SELECT \* FROM "order_items"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	order, err = svc.VerifyPayment(context.Background(), "ut_ref1")
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	assert.Len(t, notifier.confirmations, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsUserMismatch(t *testing.T) {
	orderID := uuid.New()
	ownerID := uuid.New()
	attackerID := uuid.New()

	provider := &fakeProvider{
		verifyResp: &gateway.VerifyResponse{
			Status:   "success",
			Metadata: gateway.Metadata{OrderID: orderID.String(), UserID: attackerID.String()},
		},
	}

	svc, mock, notifier := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(orderRow(orderID, ownerID, false))

	_, err := svc.VerifyPayment(context.Background(), "ut_ref2")
	assert.ErrorIs(t, err, ErrPaymentUserMismatch)
	assert.Empty(t, notifier.confirmations)

	// No UPDATE may have been issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsUnsuccessfulStatus(t *testing.T) {
	provider := &fakeProvider{
		verifyResp: &gateway.VerifyResponse{Status: "failed"},
	}

	svc, mock, _ := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	_, err := svc.VerifyPayment(context.Background(), "ut_ref3")
	assert.ErrorIs(t, err, ErrPaymentNotSuccessful)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsMissingOrderID(t *testing.T) {
	provider := &fakeProvider{
		verifyResp: &gateway.VerifyResponse{Status: "success"},
	}

	svc, mock, _ := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	_, err := svc.VerifyPayment(context.Background(), "ut_ref4")
	assert.ErrorIs(t, err, ErrNoOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsMalformedOrderID(t *testing.T) {
	provider := &fakeProvider{
		verifyResp: &gateway.VerifyResponse{
			Status:   "success",
			Metadata: gateway.Metadata{OrderID: "not-a-uuid", UserID: uuid.NewString()},
		},
	}

	svc, mock, _ := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	_, err := svc.VerifyPayment(context.Background(), "ut_ref5")
	assert.ErrorIs(t, err, ErrNoOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentPropagatesProviderFailure(t *testing.T) {
	provider := &fakeProvider{verifyErr: gateway.ErrProviderUnavailable}

	svc, mock, _ := newPaymentTestService(t, provider, &fakeRates{rate: 1500})

	_, err := svc.VerifyPayment(context.Background(), "ut_ref6")
	assert.ErrorIs(t, err, gateway.ErrProviderUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementAmountUsesFallbackRate(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _ := newPaymentTestService(t, provider, &fakeRates{err: errors.New("currency api down")})

	// 115.00 USD at the 1500 fallback rate, in minor units.
	amount := svc.settlementAmount(context.Background(), 115.00)
	assert.Equal(t, int64(17250000), amount)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10000), ToMinorUnits(100.00))
	assert.Equal(t, int64(123), ToMinorUnits(1.23))
	assert.Equal(t, int64(1), ToMinorUnits(0.01))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}
