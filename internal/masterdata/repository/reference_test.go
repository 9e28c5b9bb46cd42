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

func newTestRepo(t *testing.T, col Collection) (*ReferenceRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	db := database.NewFromSqlx(mockDB.DB, logger.New("masterdata-test", "test"))
	return NewReferenceRepository(db, col), mockDB
}

func TestReferenceRepository_Create(t *testing.T) {
	repo, mockDB := newTestRepo(t, Donors)
	defer mockDB.Close()

	mockDB.ExpectQuery("INSERT INTO donors").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	entry, err := repo.Create(context.Background(), "Mercado Central")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Mercado Central", entry.Name)
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceRepository_CreateDuplicate(t *testing.T) {
	repo, mockDB := newTestRepo(t, Categories)
	defer mockDB.Close()

	mockDB.ExpectQuery("INSERT INTO categories").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "categories_name_key"})

	_, err := repo.Create(context.Background(), "Graos")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateReference))
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceRepository_GetByIDNotFound(t *testing.T) {
	repo, mockDB := newTestRepo(t, Groups)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM product_groups").
		WillReturnRows(testutil.MockRows("id", "name", "created_at"))

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceRepository_SearchByName(t *testing.T) {
	repo, mockDB := newTestRepo(t, Suppliers)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM suppliers").
		WillReturnRows(testutil.MockRows("id", "name", "created_at").
			AddRow("1", "Atacadao", time.Now()).
			AddRow("2", "Atacarejo", time.Now()))

	entries, err := repo.SearchByName(context.Background(), "ata", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Atacadao", entries[0].Name)
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceRepository_DeleteNotFound(t *testing.T) {
	repo, mockDB := newTestRepo(t, Subgroups)
	defer mockDB.Close()

	mockDB.ExpectExec("DELETE FROM product_subgroups").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestReferenceRepository_UsageCount(t *testing.T) {
	repo, mockDB := newTestRepo(t, Donors)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT COUNT(*) FROM products").
		WillReturnRows(testutil.MockRows("count").AddRow(3))

	count, err := repo.UsageCount(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	mockDB.ExpectationsWereMet(t)
}
