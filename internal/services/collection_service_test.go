// internal/services/collection_service_test.go
package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/urbanthreads/storefront-backend/internal/database"
)

func newCollectionTestService(t *testing.T) (*CollectionService, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewCollectionService(db), mock
}

func collectionRow(id uuid.UUID, count int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "slug", "product_count"}).
		AddRow(id.String(), "Summer Drop", "summer-drop", count)
}

func TestRemoveProductRecountsInSameTransaction(t *testing.T) {
	collectionID := uuid.New()
	productID := uuid.New()

	svc, mock := newCollectionTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "collections"`).WillReturnRows(collectionRow(collectionID, 2))

	// The membership delete and the count rewrite share one transaction, so
	// the ordered expectations place the UPDATE before the COMMIT.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "collection_products" WHERE collection_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "collection_products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE "collections" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "collections"`).WillReturnRows(collectionRow(collectionID, 1))

	collection, err := svc.RemoveProduct(collectionID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), collection.ProductCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddProductSkipsInsertWhenAlreadyMember(t *testing.T) {
	collectionID := uuid.New()
	productID := uuid.New()

	svc, mock := newCollectionTestService(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "collections"`).WillReturnRows(collectionRow(collectionID, 3))

	// Existing membership short-circuits the transaction before any write.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "collection_products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "collections"`).WillReturnRows(collectionRow(collectionID, 3))

	collection, err := svc.AddProduct(collectionID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), collection.ProductCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveProductEverywhereRecountsAllCollections(t *testing.T) {
	productID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	svc, mock := newCollectionTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "collection_id" FROM "collection_products"`).
		WillReturnRows(sqlmock.NewRows([]string{"collection_id"}).
			AddRow(first.String()).
			AddRow(second.String()))
	mock.ExpectExec(`DELETE FROM "collection_products" WHERE product_id`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	// One recount per affected collection, still inside the caller's
	// transaction.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "collection_products"`).
		WithArgs(first.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(`UPDATE "collections" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "collection_products"`).
		WithArgs(second.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE "collections" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := database.WithTransaction(svc.db, func(tx *gorm.DB) error {
		return svc.removeProductEverywhere(tx, productID)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveProductEverywhereNoMemberships(t *testing.T) {
	svc, mock := newCollectionTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "collection_id" FROM "collection_products"`).
		WillReturnRows(sqlmock.NewRows([]string{"collection_id"}))
	mock.ExpectCommit()

	err := database.WithTransaction(svc.db, func(tx *gorm.DB) error {
		return svc.removeProductEverywhere(tx, uuid.New())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupeProductsKeepsFirstOccurrence(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, []uuid.UUID{a, b}, dedupeProducts([]uuid.UUID{a, b, a, b, a}))
	assert.Empty(t, dedupeProducts(nil))
}
