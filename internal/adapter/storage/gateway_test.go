package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/port"
)

type mergingGateway interface {
	port.Gateway
	port.Merger
}

func newBadgerGateway(t *testing.T) mergingGateway {
	t.Helper()
	db, err := OpenBadger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBadgerAdapter(db)
}

func newSQLiteGateway(t *testing.T) mergingGateway {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pantry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewSQLiteAdapter(db)
	require.NoError(t, adapter.EnsureSchema(context.Background()))
	return adapter
}

func newMySQLGateway(t *testing.T) mergingGateway {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/pantry?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Recreate the table so schema changes reach long-lived test databases.
	_, err = db.Exec(`DROP TABLE IF EXISTS inventory`)
	require.NoError(t, err)
	adapter := NewMySQLAdapter(db)
	require.NoError(t, adapter.EnsureSchema(context.Background()))
	return adapter
}

func getRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func newRedisGateway(t *testing.T) mergingGateway {
	return NewRedisAdapter(getRedisClient(t))
}

var gateways = map[string]func(t *testing.T) mergingGateway{
	"memory": func(t *testing.T) mergingGateway { return NewMemoryAdapter() },
	"badger": newBadgerGateway,
	"sqlite": newSQLiteGateway,
	"mysql":  newMySQLGateway,
	"redis":  newRedisGateway,
}

func forEachGateway(t *testing.T, fn func(t *testing.T, gw mergingGateway)) {
	for name, open := range gateways {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func TestGateway_UpsertAndGet(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()

		_, found, err := gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, gw.Upsert(ctx, "Rice", domain.Record{Quantity: 2, Description: "Basmati"}))
		got, found, err := gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.Record{Quantity: 2, Description: "Basmati"}, got)

		require.NoError(t, gw.Upsert(ctx, "Rice", domain.Record{Quantity: 9}))
		got, _, err = gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		assert.Equal(t, domain.Record{Quantity: 9}, got)
	})
}

func TestGateway_ListAll(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()

		items, err := gw.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)

		want := []domain.InventoryItem{
			{Name: "Apples", Quantity: 4, Description: "Gala"},
			{Name: "Flour", Quantity: 10, Description: "Whole wheat"},
			{Name: "Olive oil", Quantity: 1},
		}
		for _, it := range want {
			require.NoError(t, gw.Upsert(ctx, it.Name, it.Record()))
		}

		items, err = gw.ListAll(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, items)
	})
}

func TestGateway_DeleteIsIdempotent(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()

		require.NoError(t, gw.Delete(ctx, "missing"))

		require.NoError(t, gw.Upsert(ctx, "Salt", domain.Record{Quantity: 1}))
		require.NoError(t, gw.Delete(ctx, "Salt"))
		require.NoError(t, gw.Delete(ctx, "Salt"))

		_, found, err := gw.GetOne(ctx, "Salt")
		require.NoError(t, err)
		assert.False(t, found)

		items, err := gw.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestGateway_MergeAdd(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()

		require.NoError(t, gw.MergeAdd(ctx, "Flour", 10, "Whole wheat"))
		got, _, err := gw.GetOne(ctx, "Flour")
		require.NoError(t, err)
		assert.Equal(t, domain.Record{Quantity: 10, Description: "Whole wheat"}, got)

		require.NoError(t, gw.MergeAdd(ctx, "Flour", 5, "ignored"))
		got, _, err = gw.GetOne(ctx, "Flour")
		require.NoError(t, err)
		assert.Equal(t, domain.Record{Quantity: 15, Description: "Whole wheat"}, got)
	})
}

func TestGateway_MergeAddConcurrent(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()
		const workers = 20

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := gw.MergeAdd(ctx, "Beans", 1, fmt.Sprintf("batch %d", i)); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, found, err := gw.GetOne(ctx, "Beans")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, workers, got.Quantity)
	})
}

func TestGateway_NamesWithSpecialCharacters(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()
		names := []string{"Crème fraîche", "item:nested", "50% cocoa"}

		for _, n := range names {
			require.NoError(t, gw.Upsert(ctx, n, domain.Record{Quantity: 1}))
		}

		items, err := gw.ListAll(ctx)
		require.NoError(t, err)
		got := make([]string, 0, len(items))
		for _, it := range items {
			got = append(got, it.Name)
		}
		assert.ElementsMatch(t, names, got)
	})
}

func TestGateway_MergeAddRejectsOverflow(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()
		require.NoError(t, gw.Upsert(ctx, "Rice", domain.Record{Quantity: 1, Description: "Jasmine"}))

		err := gw.MergeAdd(ctx, "Rice", math.MaxInt, "ignored")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		got, found, err := gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.Record{Quantity: 1, Description: "Jasmine"}, got)

		require.NoError(t, gw.MergeAdd(ctx, "Rice", math.MaxInt-1, ""))
		got, _, err = gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, got.Quantity)
	})
}

func TestGateway_NamesAreCaseSensitive(t *testing.T) {
	forEachGateway(t, func(t *testing.T, gw mergingGateway) {
		ctx := context.Background()
		require.NoError(t, gw.MergeAdd(ctx, "Rice", 2, "Jasmine"))
		require.NoError(t, gw.MergeAdd(ctx, "rice", 3, "wild"))

		upper, found, err := gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.Record{Quantity: 2, Description: "Jasmine"}, upper)

		lower, found, err := gw.GetOne(ctx, "rice")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.Record{Quantity: 3, Description: "wild"}, lower)

		require.NoError(t, gw.Delete(ctx, "rice"))
		_, found, err = gw.GetOne(ctx, "Rice")
		require.NoError(t, err)
		assert.True(t, found, "deleting one spelling must keep the other")
	})
}
