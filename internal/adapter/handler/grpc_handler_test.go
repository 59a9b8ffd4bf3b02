package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/pantry/internal/adapter/storage"
	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/core/service"
	"github.com/rl1809/pantry/internal/metrics"
)

func newGRPCClient(t *testing.T, gw *storage.MemoryAdapter) *InventoryClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	m := metrics.New(prometheus.NewRegistry(), "test")
	svc := service.NewInventoryService(gw, service.WithIdempotencyStore(storage.NewMemoryIdempotency(time.Hour)))
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryMetrics(m)))
	RegisterInventoryServer(srv, NewGRPCHandler(svc, zap.NewNop()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewInventoryClient(conn)
}

func TestGRPC_AddEditRemoveList(t *testing.T) {
	gw := storage.NewMemoryAdapter()
	client := newGRPCClient(t, gw)
	ctx := context.Background()

	_, err := client.AddItem(ctx, &ItemRequest{Name: "Rice", Quantity: "2", Description: "Basmati"})
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &ItemRequest{Name: "Rice", Quantity: "3", Description: "ignored"})
	require.NoError(t, err)

	got, _, _ := gw.GetOne(ctx, "Rice")
	assert.Equal(t, domain.Record{Quantity: 5, Description: "Basmati"}, got)

	_, err = client.EditItem(ctx, &ItemRequest{Name: "Flour", Quantity: "10", Description: "Whole wheat"})
	require.NoError(t, err)

	resp, err := client.ListView(ctx, &ViewRequest{Sort: "quantity", Dir: "desc"})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Flour", resp.Rows[0].Name)
	assert.Equal(t, "Rice", resp.Rows[1].Name)

	_, err = client.RemoveItem(ctx, &RemoveRequest{Name: "Rice"})
	require.NoError(t, err)
	_, err = client.RemoveItem(ctx, &RemoveRequest{Name: "Rice"})
	require.NoError(t, err)

	resp, err = client.ListView(ctx, &ViewRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 1)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	client := newGRPCClient(t, storage.NewMemoryAdapter())
	ctx := context.Background()

	_, err := client.AddItem(ctx, &ItemRequest{Name: "", Quantity: "1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.EditItem(ctx, &ItemRequest{Name: "x", Quantity: "-2"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.AddItem(ctx, &ItemRequest{RequestID: "r1", Name: "x", Quantity: "1"})
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &ItemRequest{RequestID: "r1", Name: "x", Quantity: "1"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}
