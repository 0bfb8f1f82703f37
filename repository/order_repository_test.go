package repository_test

import (
	"context"
	"regexp"
	"testing"

	"checkout-service/config"
	"checkout-service/models"
	"checkout-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func paidOrder(items ...models.OrderItem) *models.Order {
	return &models.Order{
		StripeSessionID: "cs_test_1",
		Status:          models.OrderStatusPaid,
		Amount:          9998,
		Currency:        "eur",
		OrderItems:      items,
	}
}

func TestFindBySessionID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyReview)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.FindBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, order)
}

func TestCreatePaidOrder_DecrementsEveryItem(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyReview)

	order := paidOrder(
		models.OrderItem{SKU: "A", Quantity: 2, UnitPrice: 4999},
		models.OrderItem{SKU: "B", Quantity: 1, UnitPrice: 12000},
	)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(2, "A", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(1, "B", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.CreatePaidOrder(context.Background(), order)
	assert.NoError(t, err)
	assert.False(t, order.NeedsReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaidOrder_ReviewPolicyFlagsOversold(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyReview)

	order := paidOrder(models.OrderItem{SKU: "A", Quantity: 2, UnitPrice: 4999})

	mock.ExpectBegin()
	// competing buyer emptied the shelf first
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(2, "A", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.CreatePaidOrder(context.Background(), order)
	assert.NoError(t, err)
	assert.True(t, order.NeedsReview)
	assert.True(t, order.OrderItems[0].Oversold)
	// review policy keeps the requested quantity for the refund workflow
	assert.Equal(t, 2, order.OrderItems[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaidOrder_ClampPolicyTakesRemainder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyClamp)

	order := paidOrder(models.OrderItem{SKU: "A", Quantity: 2, UnitPrice: 4999})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(2, "A", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// row locked, one unit left
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "variants"`)).
		WillReturnRows(variantRowsWithStock("A", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(1, "A", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.CreatePaidOrder(context.Background(), order)
	assert.NoError(t, err)
	assert.True(t, order.NeedsReview)
	assert.True(t, order.OrderItems[0].Oversold)
	assert.Equal(t, 1, order.OrderItems[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaidOrder_DuplicateSessionRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyReview)

	order := paidOrder(models.OrderItem{SKU: "A", Quantity: 1, UnitPrice: 100})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WithArgs(1, "A", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"}) // unique_violation on stripe_session_id
	mock.ExpectRollback()

	err := repo.CreatePaidOrder(context.Background(), order)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaidOrder_DecrementFailureRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB, config.OversoldPolicyReview)

	order := paidOrder(models.OrderItem{SKU: "A", Quantity: 1, UnitPrice: 100})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "variants" SET "stock"=stock - `)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreatePaidOrder(context.Background(), order)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func variantRowsWithStock(sku string, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"sku", "name", "unit_price", "stock", "images", "sellable"}).
		AddRow(sku, "Air Test", 49.99, stock, "", true)
}
