// Command stress hammers one item with concurrent adds against the store
// configured through pantry.yaml or PANTRY_* variables, then checks that no
// increment was lost.
package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/adapter/storage"
	"github.com/rl1809/pantry/internal/config"
	"github.com/rl1809/pantry/internal/core/service"
	"github.com/rl1809/pantry/internal/logging"
	"github.com/rl1809/pantry/internal/port"
)

const (
	itemName      = "stress-test-item"
	totalRequests = 200
	perRequest    = 1
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	store, err := storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	// Clear previous run
	if err := store.Gateway.Delete(ctx, itemName); err != nil {
		return fmt.Errorf("reset item: %w", err)
	}

	svc := service.NewInventoryService(store.Gateway)
	_, atomicMerge := store.Gateway.(port.Merger)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := svc.AddItem(ctx, itemName, fmt.Sprint(perRequest), "stress")
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
				logger.Warn("add failed", zap.Error(err))
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Backend:          %s (atomic merge: %t)\n", cfg.Store.Backend, atomicMerge)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	record, found, err := store.Gateway.GetOne(ctx, itemName)
	if err != nil {
		return fmt.Errorf("read back %s: %w", itemName, err)
	}
	if !found {
		return fmt.Errorf("read back %s: item missing", itemName)
	}

	want := int(success) * perRequest
	if record.Quantity != want {
		return fmt.Errorf("expected quantity %d, got %d (%d increments lost)", want, record.Quantity, want-record.Quantity)
	}
	fmt.Printf("PASS: final quantity %d matches %d successful adds\n", record.Quantity, success)
	return nil
}
