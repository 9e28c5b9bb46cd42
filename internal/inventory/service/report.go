package service

import (
	"context"
	"strconv"
	"time"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/expiry"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/report"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// Report kinds.
const (
	ReportInventory = "inventory"
	ReportDonations = "donations"
	ReportExpiring  = "expiring"
	ReportExpired   = "expired"
)

// Report formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var reportHeaders = []string{
	"Produto", "Quantidade", "Unidade", "Validade", "Recebimento", "Tipo", "Categoria",
}

// ReportService builds stock reports and renders them as PDF or XLSX.
type ReportService struct {
	productRepo   *repository.ProductRepository
	publisher     EventPublisher
	pdf           *report.PDFWriter
	xlsx          *report.XLSXWriter
	thresholdDays int
	logger        *logger.Logger
}

// NewReportService creates a new report service.
func NewReportService(productRepo *repository.ProductRepository, publisher EventPublisher, thresholdDays int, log *logger.Logger) *ReportService {
	if thresholdDays <= 0 {
		thresholdDays = expiry.DefaultThresholdDays
	}
	return &ReportService{
		productRepo:   productRepo,
		publisher:     publisher,
		pdf:           report.NewPDFWriter(),
		xlsx:          report.NewXLSXWriter(),
		thresholdDays: thresholdDays,
		logger:        log.WithComponent("inventory.report"),
	}
}

// Build assembles the requested report. groupBy names a product row
// field to partition by ("GroupName", "CategoryName", "DonorName");
// empty means a flat report.
func (s *ReportService) Build(ctx context.Context, kind, groupBy string) (*report.Document, error) {
	var (
		rows  []*repository.ProductRow
		title string
		err   error
	)

	switch kind {
	case ReportInventory:
		title = "Relatório de Estoque"
		rows, err = s.productRepo.List(ctx, repository.ProductFilter{})
	case ReportDonations:
		title = "Relatório de Doações"
		rows, err = s.productRepo.List(ctx, repository.ProductFilter{ReceiptType: repository.ReceiptDonation})
		if groupBy == "" {
			groupBy = "DonorName"
		}
	case ReportExpiring:
		title = "Relatório de Produtos a Vencer"
		rows, err = s.productRepo.ExpiringWithin(ctx, s.thresholdDays)
	case ReportExpired:
		title = "Relatório de Produtos Vencidos"
		rows, err = s.productRepo.Expired(ctx)
	default:
		return nil, errors.BadRequest("unknown report kind: " + kind)
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(rows)
	if err != nil {
		return nil, err
	}

	if groupBy == "" {
		return report.NewDocument(title, reportHeaders, s.formatRows(rows), summary), nil
	}

	grouping := report.Group(rows, groupBy)
	sections := make([]report.Section, 0, len(grouping.Keys))
	for _, key := range grouping.Keys {
		sections = append(sections, report.Section{
			Name: key,
			Rows: s.formatRows(grouping.Rows[key]),
		})
	}
	return report.NewGroupedDocument(title, reportHeaders, sections, summary), nil
}

// Render serializes a document in the requested format and returns the
// bytes, content type, and a dated filename.
func (s *ReportService) Render(ctx context.Context, doc *report.Document, format string) ([]byte, string, string, error) {
	date := time.Now().Format("2006-01-02")

	var (
		data        []byte
		contentType string
		filename    string
		err         error
	)

	switch format {
	case FormatPDF, "":
		data, err = s.pdf.Write(doc)
		contentType = "application/pdf"
		filename = "relatorio-" + date + ".pdf"
	case FormatXLSX:
		data, err = s.xlsx.Write(doc)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "relatorio-" + date + ".xlsx"
	default:
		return nil, "", "", errors.BadRequest("unknown report format: " + format)
	}
	if err != nil {
		return nil, "", "", err
	}

	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, messaging.EventReportGenerated, messaging.ReportGeneratedEvent{
			ReportType:  doc.Title,
			Format:      format,
			RowCount:    doc.RowCount(),
			RequestedBy: actorID(ctx),
		}); pubErr != nil {
			s.logger.Warn().Err(pubErr).Msg("failed to publish report event")
		}
	}

	return data, contentType, filename, nil
}

func (s *ReportService) summarize(rows []*repository.ProductRow) (string, error) {
	items := make([]report.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, report.LineItem{Quantity: row.Quantity, Unit: report.Unit(row.Unit)})
	}
	totals, err := report.Aggregate(items)
	if err != nil {
		return "", err
	}
	return report.Summarize(totals), nil
}

func (s *ReportService) formatRows(rows []*repository.ProductRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.Name,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			row.Unit,
			expiry.Format(row.ValidityDate, "02/01/2006"),
			expiry.Format(row.ReceiptDate, "02/01/2006"),
			row.ReceiptType,
			deref(row.CategoryName),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
