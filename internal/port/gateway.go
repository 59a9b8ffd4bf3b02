package port

import (
	"context"

	"github.com/rl1809/pantry/internal/core/domain"
)

// Gateway is a keyed document store addressed by item name.
type Gateway interface {
	// ListAll returns every stored item. Order is unspecified.
	ListAll(ctx context.Context) ([]domain.InventoryItem, error)

	// GetOne returns the record stored under name; found is false when absent.
	GetOne(ctx context.Context, name string) (record domain.Record, found bool, err error)

	// Upsert replaces the record stored under name, creating it if absent.
	Upsert(ctx context.Context, name string, record domain.Record) error

	// Delete removes the record stored under name. Deleting an absent key succeeds.
	Delete(ctx context.Context, name string) error
}

// Merger is implemented by gateways that can apply the add-item rule atomically:
// an existing record gains quantity and keeps its description, an absent one
// is created from the arguments.
type Merger interface {
	MergeAdd(ctx context.Context, name string, quantity int, description string) error
}
