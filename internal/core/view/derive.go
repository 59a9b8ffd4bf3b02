// Package view derives the rows a presentation surface renders from the full
// inventory list. Everything here is a pure function of its inputs.
package view

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rl1809/pantry/internal/core/domain"
)

// TruncateAt is the number of characters of a collapsed description.
const TruncateAt = 50

const ellipsis = "..."

type SortField string

const (
	SortNone     SortField = ""
	SortName     SortField = "name"
	SortQuantity SortField = "quantity"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type Sort struct {
	Field     SortField
	Direction Direction
}

// Query selects and orders the derived rows. Expanded names the item whose
// description is shown in full; empty means none.
type Query struct {
	Search   string
	Sort     Sort
	Expanded string
}

// Row is one rendering-ready table line.
type Row struct {
	Name            string `json:"name" yaml:"name"`
	Quantity        int    `json:"quantity" yaml:"quantity"`
	Description     string `json:"description" yaml:"description"`
	FullDescription string `json:"full_description" yaml:"full_description"`
	Truncated       bool   `json:"truncated" yaml:"truncated"`
	Expanded        bool   `json:"expanded" yaml:"expanded"`
}

// DeriveView filters, sorts and formats items. The input slice is not modified.
func DeriveView(items []domain.InventoryItem, q Query) []Row {
	visible := Filter(items, q.Search)
	SortItems(visible, q.Sort)

	rows := make([]Row, 0, len(visible))
	for _, it := range visible {
		rows = append(rows, present(it, q.Expanded != "" && it.Name == q.Expanded))
	}
	return rows
}

// Filter returns a new slice holding the items whose name contains term,
// ignoring case.
func Filter(items []domain.InventoryItem, term string) []domain.InventoryItem {
	term = strings.ToLower(term)
	out := make([]domain.InventoryItem, 0, len(items))
	for _, it := range items {
		if term == "" || strings.Contains(strings.ToLower(it.Name), term) {
			out = append(out, it)
		}
	}
	return out
}

// SortItems orders items in place. Ties keep their relative order; an
// unknown field leaves the slice untouched.
func SortItems(items []domain.InventoryItem, s Sort) {
	var cmp func(a, b domain.InventoryItem) int
	switch s.Field {
	case SortName:
		col := collate.New(language.Und, collate.IgnoreCase)
		cmp = func(a, b domain.InventoryItem) int {
			return col.CompareString(a.Name, b.Name)
		}
	case SortQuantity:
		cmp = func(a, b domain.InventoryItem) int {
			return a.Quantity - b.Quantity
		}
	default:
		return
	}

	if s.Direction == Descending {
		asc := cmp
		cmp = func(a, b domain.InventoryItem) int { return asc(b, a) }
	}
	slices.SortStableFunc(items, cmp)
}

// Truncate shortens s to TruncateAt characters plus an ellipsis when it is longer.
func Truncate(s string) (string, bool) {
	if utf8.RuneCountInString(s) <= TruncateAt {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:TruncateAt]) + ellipsis, true
}

func present(it domain.InventoryItem, expanded bool) Row {
	row := Row{
		Name:            it.Name,
		Quantity:        it.Quantity,
		Description:     it.Description,
		FullDescription: it.Description,
		Expanded:        expanded,
	}
	if !expanded {
		row.Description, row.Truncated = Truncate(it.Description)
	}
	return row
}

// ParseSortField maps user input to a field. Unrecognised input yields SortNone.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortName:
		return SortName
	case SortQuantity:
		return SortQuantity
	}
	return SortNone
}

// ParseDirection maps user input to a direction, defaulting to Ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	}
	return Ascending
}
