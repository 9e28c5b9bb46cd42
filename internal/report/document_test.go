package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("Estoque", []string{"Produto", "Quantidade"}, [][]string{
		{"arroz", "12 KG"},
		{"leite", "2 L"},
	}, "12 KG, 2 L")

	assert.Equal(t, 2, doc.RowCount())
	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Sections[0].Name)
}

func TestNewGroupedDocument(t *testing.T) {
	doc := NewGroupedDocument("Estoque", []string{"Produto"}, []Section{
		{Name: "Graos", Rows: [][]string{{"arroz"}, {"feijao"}}},
		{Name: GroupNone, Rows: [][]string{{"avulso"}}},
	}, "")

	assert.Equal(t, 3, doc.RowCount())
	assert.Equal(t, "Graos", doc.Sections[0].Name)
	assert.Equal(t, GroupNone, doc.Sections[1].Name)
}

func TestXLSXWriter_Write(t *testing.T) {
	doc := NewDocument("Estoque", []string{"Produto", "Quantidade"}, [][]string{
		{"arroz", "12 KG"},
	}, "12 KG")

	data, err := NewXLSXWriter().Write(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Estoque", "A5")
	require.NoError(t, err)
	assert.Equal(t, "arroz", value)
}

func TestPDFWriter_Write(t *testing.T) {
	doc := NewDocument("Estoque", []string{"Produto", "Quantidade"}, [][]string{
		{"arroz", "12 KG"},
	}, "12 KG")

	data, err := NewPDFWriter().Write(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
