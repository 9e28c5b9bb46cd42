package report

import (
	"time"
)

// Section is a named run of rows inside a document. Ungrouped documents
// carry a single section with an empty name.
type Section struct {
	Name string
	Rows [][]string
}

// Document is a renderable tabular report, produced by the inventory
// service and consumed by the PDF and XLSX writers.
type Document struct {
	Title       string
	GeneratedAt time.Time
	Headers     []string
	Sections    []Section
	Summary     string
}

// RowCount returns the total number of data rows across all sections.
func (d *Document) RowCount() int {
	count := 0
	for _, s := range d.Sections {
		count += len(s.Rows)
	}
	return count
}

// NewDocument builds an ungrouped document from a flat row set.
func NewDocument(title string, headers []string, rows [][]string, summary string) *Document {
	return &Document{
		Title:       title,
		GeneratedAt: time.Now(),
		Headers:     headers,
		Sections:    []Section{{Rows: rows}},
		Summary:     summary,
	}
}

// NewGroupedDocument builds a document with one section per group, in
// the order the sections are given.
func NewGroupedDocument(title string, headers []string, sections []Section, summary string) *Document {
	return &Document{
		Title:       title,
		GeneratedAt: time.Now(),
		Headers:     headers,
		Sections:    sections,
		Summary:     summary,
	}
}
