package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestService(t *testing.T, col repository.Collection) (*ReferenceService, *testutil.MockDB, *testutil.MockPublisher) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("masterdata-test", "test")
	repo := repository.NewReferenceRepository(database.NewFromSqlx(mockDB.DB, log), col)
	publisher := testutil.NewMockPublisher()
	return NewReferenceService(repo, publisher, log), mockDB, publisher
}

func TestReferenceService_Create(t *testing.T) {
	svc, mockDB, publisher := newTestService(t, repository.Donors)
	defer mockDB.Close()

	mockDB.ExpectQuery("INSERT INTO donors").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	entry, err := svc.Create(context.Background(), "  Mercado Central  ")
	require.NoError(t, err)
	assert.Equal(t, "Mercado Central", entry.Name)

	publisher.AssertEventPublished(t, messaging.EventReferenceCreated)
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceService_CreateEmptyName(t *testing.T) {
	svc, mockDB, publisher := newTestService(t, repository.Donors)
	defer mockDB.Close()

	_, err := svc.Create(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceService_DeleteRefusedWhenInUse(t *testing.T) {
	svc, mockDB, publisher := newTestService(t, repository.Groups)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM product_groups").
		WillReturnRows(testutil.MockRows("id", "name", "created_at").
			AddRow("g1", "Graos", time.Now()))
	mockDB.ExpectQuery("SELECT COUNT(*) FROM products").
		WillReturnRows(testutil.MockRows("count").AddRow(4))

	err := svc.Delete(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReferenceInUse))

	// No DELETE was expected; unmet expectations would flag one.
	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceService_DeleteUnused(t *testing.T) {
	svc, mockDB, publisher := newTestService(t, repository.Groups)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM product_groups").
		WillReturnRows(testutil.MockRows("id", "name", "created_at").
			AddRow("g1", "Graos", time.Now()))
	mockDB.ExpectQuery("SELECT COUNT(*) FROM products").
		WillReturnRows(testutil.MockRows("count").AddRow(0))
	mockDB.ExpectExec("DELETE FROM product_groups").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Delete(context.Background(), "g1")
	require.NoError(t, err)

	publisher.AssertEventPublished(t, messaging.EventReferenceDeleted)
	mockDB.ExpectationsWereMet(t)
}
