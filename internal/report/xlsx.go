package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter renders documents as XLSX workbooks.
type XLSXWriter struct{}

// NewXLSXWriter builds the writer.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write renders the document as a single-sheet workbook and returns
// its bytes.
func (w *XLSXWriter) Write(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetName(sheet, doc.Title); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	name := doc.Title

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	rowIdx := 1
	if err := w.writeRow(f, name, rowIdx, []string{doc.Title}); err != nil {
		return nil, err
	}
	rowIdx++
	if err := w.writeRow(f, name, rowIdx, []string{"Gerado em", doc.GeneratedAt.Format("02/01/2006 15:04")}); err != nil {
		return nil, err
	}
	rowIdx += 2

	if err := w.writeRow(f, name, rowIdx, doc.Headers); err != nil {
		return nil, err
	}
	if err := w.styleRow(f, name, rowIdx, len(doc.Headers), boldStyle); err != nil {
		return nil, err
	}
	rowIdx++

	for _, section := range doc.Sections {
		if section.Name != "" {
			if err := w.writeRow(f, name, rowIdx, []string{section.Name}); err != nil {
				return nil, err
			}
			if err := w.styleRow(f, name, rowIdx, 1, boldStyle); err != nil {
				return nil, err
			}
			rowIdx++
		}
		for _, r := range section.Rows {
			if err := w.writeRow(f, name, rowIdx, r); err != nil {
				return nil, err
			}
			rowIdx++
		}
	}

	if doc.Summary != "" {
		rowIdx++
		if err := w.writeRow(f, name, rowIdx, []string{"Total em estoque", doc.Summary}); err != nil {
			return nil, err
		}
		if err := w.styleRow(f, name, rowIdx, 2, boldStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *XLSXWriter) writeRow(f *excelize.File, sheet string, rowIdx int, cells []string) error {
	for i, cell := range cells {
		ref, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetCellValue(sheet, ref, cell); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", ref, err)
		}
	}
	return nil
}

func (w *XLSXWriter) styleRow(f *excelize.File, sheet string, rowIdx, width, style int) error {
	if width == 0 {
		return nil
	}
	start, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, rowIdx)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}
