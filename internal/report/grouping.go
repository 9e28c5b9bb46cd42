package report

import (
	"fmt"
	"reflect"
	"strings"
)

// GroupNone is the sentinel group for rows whose key path does not
// resolve to a value.
const GroupNone = "Sem grupo"

// Grouping is a stable partition of rows into named groups. Keys holds
// the group names in first-encounter order; Rows preserves the relative
// input order within each group.
type Grouping[T any] struct {
	Keys []string
	Rows map[string][]T
}

// Group partitions rows by resolving keyPath against each row. keyPath
// may be a dot-separated path into nested fields ("Product.Group");
// resolution short-circuits to the sentinel group the moment any
// segment is missing, nil, or not traversable. The function carries no
// state across calls: grouping the same input twice yields identical
// output.
func Group[T any](rows []T, keyPath string) Grouping[T] {
	grouping := Grouping[T]{Rows: make(map[string][]T)}

	for _, row := range rows {
		key, ok := resolveKeyPath(row, keyPath)
		if !ok || key == "" {
			key = GroupNone
		}
		if _, seen := grouping.Rows[key]; !seen {
			grouping.Keys = append(grouping.Keys, key)
		}
		grouping.Rows[key] = append(grouping.Rows[key], row)
	}

	return grouping
}

// resolveKeyPath walks a dot-separated path through maps, structs and
// pointers. The second return is false when the path cannot be resolved.
func resolveKeyPath(row any, keyPath string) (string, bool) {
	value := reflect.ValueOf(row)

	for _, segment := range strings.Split(keyPath, ".") {
		value = indirect(value)
		if !value.IsValid() {
			return "", false
		}

		switch value.Kind() {
		case reflect.Map:
			value = value.MapIndex(reflect.ValueOf(segment))
		case reflect.Struct:
			field := value.FieldByNameFunc(func(name string) bool {
				return strings.EqualFold(name, segment)
			})
			value = field
		default:
			return "", false
		}

		if !value.IsValid() {
			return "", false
		}
	}

	value = indirect(value)
	if !value.IsValid() {
		return "", false
	}

	switch value.Kind() {
	case reflect.String:
		return value.String(), true
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return "", false
	default:
		return fmt.Sprintf("%v", value.Interface()), true
	}
}

// indirect unwraps pointers and interfaces, returning an invalid value
// for nil.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// CollapsedSet tracks which group names are currently collapsed in a
// grouped table view.
type CollapsedSet map[string]struct{}

// NewCollapsedSet returns an empty collapsed set (all groups expanded).
func NewCollapsedSet() CollapsedSet {
	return CollapsedSet{}
}

// IsCollapsed reports whether the named group is collapsed.
func (s CollapsedSet) IsCollapsed(name string) bool {
	_, ok := s[name]
	return ok
}

// Toggle flips the collapsed state of a single group.
func (s CollapsedSet) Toggle(name string) {
	if s.IsCollapsed(name) {
		delete(s, name)
		return
	}
	s[name] = struct{}{}
}

// ToggleAll expands every group if all of them are currently collapsed,
// otherwise collapses every group. Repeated presses alternate between
// exactly those two end states.
func (s CollapsedSet) ToggleAll(groups []string) {
	allCollapsed := len(groups) > 0
	for _, name := range groups {
		if !s.IsCollapsed(name) {
			allCollapsed = false
			break
		}
	}

	if allCollapsed {
		for _, name := range groups {
			delete(s, name)
		}
		return
	}

	for _, name := range groups {
		s[name] = struct{}{}
	}
}
