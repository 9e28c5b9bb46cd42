package service

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/report"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestReportService(t *testing.T) (*ReportService, *testutil.MockDB, *testutil.MockPublisher) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("inventory-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)
	publisher := testutil.NewMockPublisher()

	svc := NewReportService(repository.NewProductRepository(db), publisher, 30, log)
	return svc, mockDB, publisher
}

func groupedColumns() []string {
	return append(productColumns(), "group_name")
}

func groupedRowValues(id, name string, quantity float64, unit string, groupName interface{}) []driver.Value {
	values := productRowValues(id, name, quantity, unit, time.Now().AddDate(0, 6, 0))
	return append(values, groupName)
}

func TestReportService_BuildGroupedInventory(t *testing.T) {
	svc, mockDB, _ := newTestReportService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT p.*").
		WillReturnRows(testutil.MockRows(groupedColumns()...).
			AddRow(groupedRowValues("p1", "Arroz", 7, "KG", "Graos")...).
			AddRow(groupedRowValues("p2", "Feijao", 5, "KG", "Graos")...).
			AddRow(groupedRowValues("p3", "Fuba", 500, "G", nil)...))

	doc, err := svc.Build(context.Background(), ReportInventory, "GroupName")
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Graos", doc.Sections[0].Name)
	assert.Equal(t, report.GroupNone, doc.Sections[1].Name)
	assert.Len(t, doc.Sections[0].Rows, 2)
	assert.Equal(t, "12 KG, 500 G", doc.Summary)
	mockDB.ExpectationsWereMet(t)
}

func TestReportService_BuildUnknownKind(t *testing.T) {
	svc, mockDB, _ := newTestReportService(t)
	defer mockDB.Close()

	_, err := svc.Build(context.Background(), "weekly", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	mockDB.ExpectationsWereMet(t)
}

func TestReportService_RenderFormats(t *testing.T) {
	svc, mockDB, publisher := newTestReportService(t)
	defer mockDB.Close()

	doc := report.NewDocument("Relatório de Estoque", reportHeaders,
		[][]string{{"Arroz", "12", "KG", "01/01/2027", "01/07/2026", "DONATION", ""}},
		"12 KG")

	pdfData, contentType, filename, err := svc.Render(context.Background(), doc, FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfData), "%PDF"))
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))

	xlsxData, contentType, filename, err := svc.Render(context.Background(), doc, FormatXLSX)
	require.NoError(t, err)
	assert.NotEmpty(t, xlsxData)
	assert.Contains(t, contentType, "spreadsheetml")
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	publisher.AssertEventPublished(t, messaging.EventReportGenerated)
}

func TestReportService_RenderUnknownFormat(t *testing.T) {
	svc, mockDB, publisher := newTestReportService(t)
	defer mockDB.Close()

	doc := report.NewDocument("Relatório", reportHeaders, nil, "")
	_, _, _, err := svc.Render(context.Background(), doc, "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	publisher.AssertNoEventsPublished(t)
}
