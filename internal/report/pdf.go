package report

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfColorPrimary = &props.Color{Red: 27, Green: 94, Blue: 32}
	pdfColorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// PDFWriter renders documents as A4 PDF reports.
type PDFWriter struct{}

// NewPDFWriter builds the writer.
func NewPDFWriter() *PDFWriter {
	return &PDFWriter{}
}

// Write renders the document and returns its bytes.
func (w *PDFWriter) Write(doc *Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(titleRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: pdfColorPrimary, Thickness: 0.5}))
	m.AddRows(headerRow(doc.Headers))

	for _, section := range doc.Sections {
		if section.Name != "" {
			m.AddRows(sectionRow(section.Name, len(section.Rows)))
		}
		for _, r := range dataRows(doc.Headers, section.Rows) {
			m.AddRows(r)
		}
	}

	if doc.Summary != "" {
		m.AddRows(line.NewRow(1, props.Line{Color: pdfColorPrimary, Thickness: 0.3}))
		m.AddRows(summaryRow(doc.Summary))
	}

	rendered, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pdf: %w", err)
	}
	return rendered.GetBytes(), nil
}

func titleRow(doc *Document) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(doc.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: pdfColorPrimary, Top: 1,
			}),
		),
		col.New(4).Add(
			text.New("Gerado em: "+doc.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 4, Color: pdfColorGray,
			}),
		),
	)
}

func headerRow(headers []string) core.Row {
	width := columnWidth(len(headers))
	cols := make([]core.Col, 0, len(headers))
	for _, h := range headers {
		cols = append(cols, col.New(width).Add(text.New(h, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: pdfColorPrimary, Top: 2,
		})))
	}
	return row.New(8).Add(cols...)
}

func sectionRow(name string, count int) core.Row {
	return row.New(8).Add(
		col.New(12).Add(text.New(fmt.Sprintf("%s (%d)", name, count), props.Text{
			Style: fontstyle.Bold, Size: 9, Top: 2,
		})),
	)
}

func dataRows(headers []string, rows [][]string) []core.Row {
	width := columnWidth(len(headers))
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		cols := make([]core.Col, 0, len(r))
		for _, cell := range r {
			cols = append(cols, col.New(width).Add(text.New(cell, props.Text{
				Size: 8, Top: 1,
			})))
		}
		result = append(result, row.New(6).Add(cols...))
	}
	return result
}

func summaryRow(summary string) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New("Total em estoque: "+summary, props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 2, Color: pdfColorPrimary,
			}),
		),
	)
}

// columnWidth spreads the 12-unit grid across the headers.
func columnWidth(headers int) int {
	if headers == 0 {
		return 12
	}
	width := 12 / headers
	if width < 1 {
		width = 1
	}
	return width
}
