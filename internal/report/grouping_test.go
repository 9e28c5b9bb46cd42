package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupedRow struct {
	Name    string
	Product *groupedProduct
}

type groupedProduct struct {
	Group string
}

func TestGroup_NestedPath(t *testing.T) {
	rows := []groupedRow{
		{Name: "arroz", Product: &groupedProduct{Group: "Graos"}},
		{Name: "feijao", Product: &groupedProduct{Group: "Graos"}},
		{Name: "avulso", Product: &groupedProduct{}},
	}

	grouping := Group(rows, "Product.Group")

	assert.Equal(t, []string{"Graos", GroupNone}, grouping.Keys)
	require.Len(t, grouping.Rows["Graos"], 2)
	assert.Equal(t, "arroz", grouping.Rows["Graos"][0].Name)
	assert.Equal(t, "feijao", grouping.Rows["Graos"][1].Name)
	require.Len(t, grouping.Rows[GroupNone], 1)
	assert.Equal(t, "avulso", grouping.Rows[GroupNone][0].Name)
}

func TestGroup_ShortCircuitOnNilSegment(t *testing.T) {
	rows := []groupedRow{
		{Name: "sem produto", Product: nil},
	}

	grouping := Group(rows, "Product.Group")

	assert.Equal(t, []string{GroupNone}, grouping.Keys)
	assert.Len(t, grouping.Rows[GroupNone], 1)
}

func TestGroup_MapRows(t *testing.T) {
	rows := []map[string]any{
		{"a": map[string]any{"b": "X"}},
		{"a": map[string]any{"b": "X"}},
		{"a": map[string]any{}},
	}

	grouping := Group(rows, "a.b")

	assert.Equal(t, []string{"X", GroupNone}, grouping.Keys)
	assert.Len(t, grouping.Rows["X"], 2)
	assert.Len(t, grouping.Rows[GroupNone], 1)
}

func TestGroup_PreservesInputOrderWithinGroups(t *testing.T) {
	rows := []map[string]any{
		{"group": "B", "n": 1},
		{"group": "A", "n": 2},
		{"group": "B", "n": 3},
		{"group": "A", "n": 4},
	}

	grouping := Group(rows, "group")

	assert.Equal(t, []string{"B", "A"}, grouping.Keys)
	assert.Equal(t, 1, grouping.Rows["B"][0]["n"])
	assert.Equal(t, 3, grouping.Rows["B"][1]["n"])
	assert.Equal(t, 2, grouping.Rows["A"][0]["n"])
	assert.Equal(t, 4, grouping.Rows["A"][1]["n"])
}

func TestGroup_NonTraversableSegment(t *testing.T) {
	rows := []map[string]any{
		{"a": "not an object"},
	}

	grouping := Group(rows, "a.b")
	assert.Equal(t, []string{GroupNone}, grouping.Keys)
}

func TestGroup_Idempotent(t *testing.T) {
	rows := []map[string]any{
		{"group": "A"},
		{"group": "B"},
		{"group": nil},
	}

	first := Group(rows, "group")
	second := Group(rows, "group")

	assert.Equal(t, first.Keys, second.Keys)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestCollapsedSet_Toggle(t *testing.T) {
	set := NewCollapsedSet()

	set.Toggle("A")
	assert.True(t, set.IsCollapsed("A"))

	set.Toggle("A")
	assert.False(t, set.IsCollapsed("A"))
}

func TestCollapsedSet_ToggleAllAlternatesBetweenEndStates(t *testing.T) {
	groups := []string{"A", "B", "C"}
	set := NewCollapsedSet()

	// Mixed state collapses everything.
	set.Toggle("A")
	set.ToggleAll(groups)
	for _, name := range groups {
		assert.True(t, set.IsCollapsed(name))
	}

	// All collapsed expands everything.
	set.ToggleAll(groups)
	for _, name := range groups {
		assert.False(t, set.IsCollapsed(name))
	}

	// All expanded collapses everything again.
	set.ToggleAll(groups)
	for _, name := range groups {
		assert.True(t, set.IsCollapsed(name))
	}
}

func TestCollapsedSet_ToggleAllEmpty(t *testing.T) {
	set := NewCollapsedSet()
	set.ToggleAll(nil)
	assert.Empty(t, set)
}
