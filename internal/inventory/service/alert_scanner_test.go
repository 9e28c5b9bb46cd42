package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestScanner(t *testing.T) (*AlertScanner, *testutil.MockDB, *testutil.MockPublisher) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("inventory-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)
	publisher := testutil.NewMockPublisher()

	scanner := NewAlertScanner(
		repository.NewProductRepository(db),
		repository.NewAlertRepository(db),
		publisher,
		30,
		log,
	)
	return scanner, mockDB, publisher
}

func TestAlertScanner_ScanAllRaisesExpiredAlert(t *testing.T) {
	scanner, mockDB, publisher := newTestScanner(t)
	defer mockDB.Close()

	expired := time.Now().AddDate(0, 0, -2)
	valid := time.Now().AddDate(1, 0, 0)

	// expiry scan: one expired product raises an alert, the valid one
	// does not
	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...).
			AddRow(productRowValues("prod-1", "Leite", 10, "L", expired)...).
			AddRow(productRowValues("prod-2", "Arroz", 12, "KG", valid)...))
	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs(repository.AlertTypeExpired, "prod-1").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))
	mockDB.ExpectQuery("INSERT INTO expiry_alerts").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	// zero stock scan: both products have stock
	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...).
			AddRow(productRowValues("prod-1", "Leite", 10, "L", expired)...).
			AddRow(productRowValues("prod-2", "Arroz", 12, "KG", valid)...))

	// resolve pass: nothing active to clear
	mockDB.ExpectQuery("SELECT * FROM expiry_alerts").
		WillReturnRows(testutil.MockRows("id", "product_id", "alert_type", "severity", "message", "status", "created_at"))

	require.NoError(t, scanner.ScanAll(context.Background()))
	publisher.AssertEventPublished(t, messaging.EventAlertGenerated)
	mockDB.ExpectationsWereMet(t)
}

func TestAlertScanner_ScanAllDeduplicates(t *testing.T) {
	scanner, mockDB, publisher := newTestScanner(t)
	defer mockDB.Close()

	expired := time.Now().AddDate(0, 0, -2)

	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...).
			AddRow(productRowValues("prod-1", "Leite", 10, "L", expired)...))
	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs(repository.AlertTypeExpired, "prod-1").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...).
			AddRow(productRowValues("prod-1", "Leite", 10, "L", expired)...))

	mockDB.ExpectQuery("SELECT * FROM expiry_alerts").
		WillReturnRows(testutil.MockRows("id", "product_id", "alert_type", "severity", "message", "status", "created_at"))

	require.NoError(t, scanner.ScanAll(context.Background()))
	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestAlertScanner_ResolveClearedRestockedProduct(t *testing.T) {
	scanner, mockDB, _ := newTestScanner(t)
	defer mockDB.Close()

	valid := time.Now().AddDate(1, 0, 0)

	mockDB.ExpectQuery("SELECT * FROM expiry_alerts").
		WillReturnRows(testutil.MockRows("id", "product_id", "alert_type", "severity", "message", "status", "created_at").
			AddRow("alert-1", "prod-1", repository.AlertTypeZeroStock, SeverityWarning, "sem estoque", repository.AlertStatusOpen, time.Now()))
	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...).
			AddRow(productRowValues("prod-1", "Leite", 10, "L", valid)...))
	mockDB.ExpectExec("UPDATE expiry_alerts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, scanner.resolveCleared(context.Background()))
	mockDB.ExpectationsWereMet(t)
}

func TestAlertScanner_ResolveClearedDeletedProduct(t *testing.T) {
	scanner, mockDB, _ := newTestScanner(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM expiry_alerts").
		WillReturnRows(testutil.MockRows("id", "product_id", "alert_type", "severity", "message", "status", "created_at").
			AddRow("alert-1", "prod-gone", repository.AlertTypeExpired, SeverityCritical, "vencido", repository.AlertStatusOpen, time.Now()))
	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(productColumns()...))
	mockDB.ExpectExec("UPDATE expiry_alerts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, scanner.resolveCleared(context.Background()))
	mockDB.ExpectationsWereMet(t)
}

func TestAlertScanner_ResolveClearedKeepsAlertOnLookupError(t *testing.T) {
	scanner, mockDB, _ := newTestScanner(t)
	defer mockDB.Close()

	// A failed product lookup is not a deletion: the alert stays open
	// and no UPDATE runs.
	mockDB.ExpectQuery("SELECT * FROM expiry_alerts").
		WillReturnRows(testutil.MockRows("id", "product_id", "alert_type", "severity", "message", "status", "created_at").
			AddRow("alert-1", "prod-1", repository.AlertTypeExpired, SeverityCritical, "vencido", repository.AlertStatusOpen, time.Now()))
	mockDB.ExpectQuery("SELECT p.*").
		WillReturnError(context.DeadlineExceeded)

	require.NoError(t, scanner.resolveCleared(context.Background()))
	mockDB.ExpectationsWereMet(t)
}

func TestNewAlertScannerDefaultThreshold(t *testing.T) {
	scanner := NewAlertScanner(nil, nil, nil, 0, logger.New("inventory-test", "test"))
	assert.Equal(t, 30, scanner.thresholdDays)
}
