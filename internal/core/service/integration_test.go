package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pantry/internal/adapter/storage"
	"github.com/rl1809/pantry/internal/core/service"
)

func newSQLiteService(t *testing.T) (*service.InventoryService, *storage.SQLAdapter) {
	t.Helper()

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "pantry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gateway := storage.NewSQLiteAdapter(db)
	require.NoError(t, gateway.EnsureSchema(context.Background()))

	svc := service.NewInventoryService(gateway,
		service.WithIdempotencyStore(storage.NewMemoryIdempotency(time.Hour)))
	return svc, gateway
}

func TestIntegration_ConcurrentAddsAreNotLost(t *testing.T) {
	svc, gateway := newSQLiteService(t)
	ctx := context.Background()

	var successCount atomic.Int32
	var wg sync.WaitGroup
	totalRequests := 25

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.AddItemOnce(ctx, uuid.NewString(), "Rice", "2", "Jasmine"); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(totalRequests), successCount.Load())

	record, found, err := gateway.GetOne(ctx, "Rice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, totalRequests*2, record.Quantity)
	assert.Equal(t, "Jasmine", record.Description)
}

func TestIntegration_IdempotencyPreventsDoubleAdd(t *testing.T) {
	svc, gateway := newSQLiteService(t)
	ctx := context.Background()
	requestID := uuid.NewString()

	require.NoError(t, svc.AddItemOnce(ctx, requestID, "Flour", "10", "Whole wheat"))

	err := svc.AddItemOnce(ctx, requestID, "Flour", "10", "Whole wheat")
	require.True(t, errors.Is(err, service.ErrDuplicateRequest), "expected duplicate request, got %v", err)

	record, found, err := gateway.GetOne(ctx, "Flour")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10, record.Quantity)
}

func TestIntegration_EditThenRemove(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "Rice", "2", "Jasmine"))
	require.NoError(t, svc.AddItem(ctx, "Rice", "3", "ignored"))
	require.NoError(t, svc.EditItem(ctx, "Beans", "4", "Black"))

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Beans", items[0].Name)
	assert.Equal(t, 5, items[1].Quantity)
	assert.Equal(t, "Jasmine", items[1].Description)

	require.NoError(t, svc.EditItem(ctx, "Rice", "1", "Basmati"))
	require.NoError(t, svc.RemoveItem(ctx, "Beans"))
	require.NoError(t, svc.RemoveItem(ctx, "Beans"))

	items, err = svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "Basmati", items[0].Description)
}
