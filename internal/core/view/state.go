package view

import (
	"slices"

	"github.com/rl1809/pantry/internal/core/domain"
)

// State is one revision of the client-side view. Every method returns a new
// revision; the receiver is never changed.
type State struct {
	items []domain.InventoryItem
	query Query
}

// NewState starts a view sorted by name, ascending.
func NewState(items []domain.InventoryItem) State {
	return State{
		items: slices.Clone(items),
		query: Query{Sort: Sort{Field: SortName, Direction: Ascending}},
	}
}

func (s State) Items() []domain.InventoryItem { return slices.Clone(s.items) }

func (s State) Query() Query { return s.query }

// WithItems replaces the item list after a re-fetch. An expanded item that no
// longer exists is collapsed.
func (s State) WithItems(items []domain.InventoryItem) State {
	s.items = slices.Clone(items)
	if s.query.Expanded != "" && !slices.ContainsFunc(s.items, func(it domain.InventoryItem) bool {
		return it.Name == s.query.Expanded
	}) {
		s.query.Expanded = ""
	}
	return s
}

func (s State) WithSearch(term string) State {
	s.query.Search = term
	return s
}

func (s State) WithSort(field SortField, dir Direction) State {
	s.query.Sort = Sort{Field: field, Direction: dir}
	return s
}

// ToggleSort flips an ascending sort on field to descending; any other
// state becomes ascending on field.
func (s State) ToggleSort(field SortField) State {
	dir := Ascending
	if s.query.Sort.Field == field && s.query.Sort.Direction == Ascending {
		dir = Descending
	}
	return s.WithSort(field, dir)
}

// ToggleExpanded expands the named item, or collapses it if it is already expanded.
func (s State) ToggleExpanded(name string) State {
	if s.query.Expanded == name {
		s.query.Expanded = ""
	} else {
		s.query.Expanded = name
	}
	return s
}

func (s State) Rows() []Row {
	return DeriveView(s.items, s.query)
}
