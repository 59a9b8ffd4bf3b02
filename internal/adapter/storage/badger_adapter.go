package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rl1809/pantry/internal/core/domain"
)

// All item keys look like "item:<name>".
const itemKeyPrefix = "item:"

const maxMergeAttempts = 100

type BadgerAdapter struct {
	db *badger.DB
}

func NewBadgerAdapter(db *badger.DB) *BadgerAdapter {
	return &BadgerAdapter{db: db}
}

// OpenBadger opens a Badger database. An empty path or ":memory:" keeps
// everything in memory.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

func itemKey(name string) []byte {
	return []byte(itemKeyPrefix + name)
}

func (b *BadgerAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	items := []domain.InventoryItem{}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(itemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry := it.Item()
			name := string(entry.Key()[len(prefix):])
			err := entry.Value(func(val []byte) error {
				var r domain.Record
				if err := json.Unmarshal(val, &r); err != nil {
					return fmt.Errorf("decode %q: %w", name, err)
				}
				items = append(items, r.Item(name))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (b *BadgerAdapter) GetOne(ctx context.Context, name string) (domain.Record, bool, error) {
	var (
		r     domain.Record
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		r, found, err = getRecord(txn, name)
		return err
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("get item: %w", err)
	}
	return r, found, nil
}

func (b *BadgerAdapter) Upsert(ctx context.Context, name string, record domain.Record) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return setRecord(txn, name, record)
	})
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (b *BadgerAdapter) Delete(ctx context.Context, name string) error {
	// Badger deletes of missing keys are no-ops.
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(name))
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// MergeAdd runs the read-modify-write in one optimistic transaction and
// retries when a concurrent writer touched the same key.
func (b *BadgerAdapter) MergeAdd(ctx context.Context, name string, quantity int, description string) error {
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			current, found, err := getRecord(txn, name)
			if err != nil {
				return err
			}
			next := domain.Record{Quantity: quantity, Description: description}
			if found {
				total, err := domain.AddQuantity(current.Quantity, quantity)
				if err != nil {
					return err
				}
				next = domain.Record{Quantity: total, Description: current.Description}
			}
			return setRecord(txn, name, next)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("merge item: %w", err)
		}
		return nil
	}
	return fmt.Errorf("merge item: %w after %d attempts", badger.ErrConflict, maxMergeAttempts)
}

func getRecord(txn *badger.Txn, name string) (domain.Record, bool, error) {
	var r domain.Record
	entry, err := txn.Get(itemKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return r, false, nil
	}
	if err != nil {
		return r, false, err
	}
	err = entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return r, false, err
	}
	return r, true, nil
}

func setRecord(txn *badger.Txn, name string, r domain.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return txn.Set(itemKey(name), value)
}
