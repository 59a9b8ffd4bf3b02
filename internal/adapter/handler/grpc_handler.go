package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/core/service"
	"github.com/rl1809/pantry/internal/core/view"
	"github.com/rl1809/pantry/internal/metrics"
)

const inventoryServiceName = "pantry.Inventory"

type ItemRequest struct {
	RequestID   string `json:"request_id,omitempty"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
}

type RemoveRequest struct {
	Name string `json:"name"`
}

type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ViewRequest struct {
	Search   string `json:"search"`
	Sort     string `json:"sort"`
	Dir      string `json:"dir"`
	Expanded string `json:"expanded"`
}

type ViewResponse struct {
	Rows  []view.Row `json:"rows"`
	Total int        `json:"total"`
}

// InventoryServer is the server API for the pantry.Inventory service.
type InventoryServer interface {
	AddItem(context.Context, *ItemRequest) (*MutationResponse, error)
	EditItem(context.Context, *ItemRequest) (*MutationResponse, error)
	RemoveItem(context.Context, *RemoveRequest) (*MutationResponse, error)
	ListView(context.Context, *ViewRequest) (*ViewResponse, error)
}

type GRPCHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

func NewGRPCHandler(inventory *service.InventoryService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{inventory: inventory, logger: logger}
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *ItemRequest) (*MutationResponse, error) {
	if err := h.inventory.AddItemOnce(ctx, req.RequestID, req.Name, req.Quantity, req.Description); err != nil {
		return nil, h.toStatus(err)
	}
	return &MutationResponse{Success: true, Message: "item added"}, nil
}

func (h *GRPCHandler) EditItem(ctx context.Context, req *ItemRequest) (*MutationResponse, error) {
	if err := h.inventory.EditItem(ctx, req.Name, req.Quantity, req.Description); err != nil {
		return nil, h.toStatus(err)
	}
	return &MutationResponse{Success: true, Message: "item updated"}, nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *RemoveRequest) (*MutationResponse, error) {
	if err := h.inventory.RemoveItem(ctx, req.Name); err != nil {
		return nil, h.toStatus(err)
	}
	return &MutationResponse{Success: true, Message: "item removed"}, nil
}

func (h *GRPCHandler) ListView(ctx context.Context, req *ViewRequest) (*ViewResponse, error) {
	items, err := h.inventory.ListItems(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}

	query := view.Query{
		Search:   req.Search,
		Sort:     view.Sort{Field: view.SortName, Direction: view.ParseDirection(req.Dir)},
		Expanded: req.Expanded,
	}
	if req.Sort != "" {
		query.Sort.Field = view.ParseSortField(req.Sort)
	}
	return &ViewResponse{Rows: view.DeriveView(items, query), Total: len(items)}, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	var (
		verr *domain.ValidationError
		gerr *domain.GatewayError
	)
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, "duplicate request")
	case errors.As(err, &gerr):
		h.logger.Error("gateway failure", zap.Error(err))
		return status.Error(codes.Unavailable, gerr.Error())
	}
	h.logger.Error("internal failure", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// RegisterInventoryServer registers srv on s under pantry.Inventory.
func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + inventoryServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(InventoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var inventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("AddItem", InventoryServer.AddItem),
		unaryHandler("EditItem", InventoryServer.EditItem),
		unaryHandler("RemoveItem", InventoryServer.RemoveItem),
		unaryHandler("ListView", InventoryServer.ListView),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pantry/inventory",
}

// UnaryMetrics counts calls by method and status code.
func UnaryMetrics(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		m.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// InventoryClient calls pantry.Inventory over a connection using the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}

func (c *InventoryClient) AddItem(ctx context.Context, in *ItemRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.invoke(ctx, "AddItem", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) EditItem(ctx context.Context, in *ItemRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.invoke(ctx, "EditItem", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) RemoveItem(ctx context.Context, in *RemoveRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.invoke(ctx, "RemoveItem", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) ListView(ctx context.Context, in *ViewRequest) (*ViewResponse, error) {
	out := new(ViewResponse)
	if err := c.invoke(ctx, "ListView", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
