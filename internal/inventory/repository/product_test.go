package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestDB(t *testing.T) (*database.DB, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	db := database.NewFromSqlx(mockDB.DB, logger.New("inventory-test", "test"))
	return db, mockDB
}

func TestProductRepository_Create(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO products").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	product := &Product{
		Name:         "Arroz",
		Quantity:     12,
		Unit:         "KG",
		ValidityDate: now.AddDate(0, 6, 0),
		ReceiptDate:  now,
		ReceiptType:  ReceiptDonation,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	assert.NotEmpty(t, product.ID)
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_CreateInvalidUnit(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectQuery("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "unit_valid"})

	product := &Product{Name: "Arroz", Quantity: 1, Unit: "TON", ReceiptType: ReceiptDonation}
	err := repo.Create(context.Background(), product)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_GetByIDNotFound(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows("id", "name"))

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_SoftDeleteNotFound(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectExec("UPDATE products SET deleted_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_AdjustQuantity(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("UPDATE products SET quantity = quantity +").
		WithArgs("prod-1", -3.0).
		WillReturnRows(testutil.MockRows("quantity").AddRow(7.0))
	mockDB.ExpectCommit()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	newQuantity, err := repo.AdjustQuantity(context.Background(), tx, "prod-1", -3)
	require.NoError(t, err)
	assert.Equal(t, 7.0, newQuantity)
	require.NoError(t, tx.Commit())
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_AdjustQuantityBelowZero(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("UPDATE products SET quantity = quantity +").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "quantity_non_negative"})
	mockDB.ExpectRollback()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	_, err = repo.AdjustQuantity(context.Background(), tx, "prod-1", -100)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.StatusCode)
	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_UnitTotals(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewProductRepository(db)

	mockDB.ExpectQuery("SELECT unit, COALESCE(SUM(quantity), 0)").
		WillReturnRows(testutil.MockRows("unit", "total").
			AddRow("KG", 12.0).
			AddRow("G", 500.0))

	totals, err := repo.UnitTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, UnitTotal{Unit: "KG", Total: 12}, totals[0])
	mockDB.ExpectationsWereMet(t)
}

func TestAlertRepository_ExistsByTypeAndProduct(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewAlertRepository(db)

	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs(AlertTypeExpiring, "prod-1").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	exists, err := repo.ExistsByTypeAndProduct(context.Background(), AlertTypeExpiring, "prod-1")
	require.NoError(t, err)
	assert.True(t, exists)
	mockDB.ExpectationsWereMet(t)
}

func TestAlertRepository_AcknowledgeNotFound(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewAlertRepository(db)

	mockDB.ExpectExec("UPDATE expiry_alerts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Acknowledge(context.Background(), "missing", "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestMovementRepository_CreateTx(t *testing.T) {
	db, mockDB := newTestDB(t)
	defer mockDB.Close()
	repo := NewMovementRepository(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)

	movement := &StockMovement{ProductID: "prod-1", MovementType: MovementIntake, Quantity: 5}
	require.NoError(t, repo.CreateTx(context.Background(), tx, movement))
	assert.NotEmpty(t, movement.ID)
	require.NoError(t, tx.Commit())
	mockDB.ExpectationsWereMet(t)
}
