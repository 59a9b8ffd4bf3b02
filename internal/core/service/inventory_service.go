package service

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

// Observer receives the outcome of every mutation. Metrics hook in here.
type Observer interface {
	ObserveMutation(op string, err error)
	ObserveItemCount(n int)
}

type InventoryService struct {
	gateway     port.Gateway
	idempotency port.IdempotencyStore
	observer    Observer
	logger      *zap.Logger
}

type Option func(*InventoryService)

func WithIdempotencyStore(store port.IdempotencyStore) Option {
	return func(s *InventoryService) { s.idempotency = store }
}

func WithObserver(o Observer) Option {
	return func(s *InventoryService) { s.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *InventoryService) { s.logger = l }
}

func NewInventoryService(gateway port.Gateway, opts ...Option) *InventoryService {
	s := &InventoryService{
		gateway: gateway,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem tops up an existing item or creates it. The description only
// applies on creation; an existing item keeps its stored description.
func (s *InventoryService) AddItem(ctx context.Context, name, rawQuantity, description string) (err error) {
	defer func() { s.observe("add", err) }()

	name, quantity, err := validate(name, rawQuantity)
	if err != nil {
		return err
	}
	return s.merge(ctx, name, quantity, description)
}

// AddItemOnce is AddItem guarded by a caller supplied request key. A key that
// was already used returns ErrDuplicateRequest and writes nothing.
func (s *InventoryService) AddItemOnce(ctx context.Context, requestKey, name, rawQuantity, description string) (err error) {
	if requestKey == "" || s.idempotency == nil {
		return s.AddItem(ctx, name, rawQuantity, description)
	}
	defer func() { s.observe("add", err) }()

	name, quantity, err := validate(name, rawQuantity)
	if err != nil {
		return err
	}

	claimKey := "add:" + requestKey
	ok, err := s.idempotency.Claim(ctx, claimKey)
	if err != nil {
		return &domain.GatewayError{Op: "claim", Key: requestKey, Err: err}
	}
	if !ok {
		return ErrDuplicateRequest
	}
	if err := s.merge(ctx, name, quantity, description); err != nil {
		// Only a successful add consumes the key.
		if rerr := s.idempotency.Release(ctx, claimKey); rerr != nil {
			s.logger.Warn("release request key", zap.String("key", requestKey), zap.Error(rerr))
		}
		return err
	}
	return nil
}

func (s *InventoryService) merge(ctx context.Context, name string, quantity int, description string) error {
	if m, ok := s.gateway.(port.Merger); ok {
		if err := m.MergeAdd(ctx, name, quantity, description); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return verr
			}
			return &domain.GatewayError{Op: "merge", Key: name, Err: err}
		}
		s.logger.Debug("item merged", zap.String("name", name), zap.Int("quantity", quantity))
		return nil
	}

	// Without a Merger the read and the write are not atomic; concurrent adds
	// on one name can lose an increment.
	current, found, err := s.gateway.GetOne(ctx, name)
	if err != nil {
		return &domain.GatewayError{Op: "get", Key: name, Err: err}
	}

	next := domain.Record{Quantity: quantity, Description: description}
	if found {
		total, err := domain.AddQuantity(current.Quantity, quantity)
		if err != nil {
			return err
		}
		next = domain.Record{Quantity: total, Description: current.Description}
	}

	if err := s.gateway.Upsert(ctx, name, next); err != nil {
		return &domain.GatewayError{Op: "upsert", Key: name, Err: err}
	}
	s.logger.Debug("item added", zap.String("name", name), zap.Int("quantity", next.Quantity), zap.Bool("existed", found))
	return nil
}

// EditItem replaces quantity and description, creating the item if absent.
func (s *InventoryService) EditItem(ctx context.Context, name, rawQuantity, description string) (err error) {
	defer func() { s.observe("edit", err) }()

	name, quantity, err := validate(name, rawQuantity)
	if err != nil {
		return err
	}

	record := domain.Record{Quantity: quantity, Description: description}
	if err := s.gateway.Upsert(ctx, name, record); err != nil {
		return &domain.GatewayError{Op: "upsert", Key: name, Err: err}
	}
	s.logger.Debug("item replaced", zap.String("name", name), zap.Int("quantity", quantity))
	return nil
}

// RemoveItem deletes the item. Removing an absent item succeeds.
func (s *InventoryService) RemoveItem(ctx context.Context, name string) (err error) {
	defer func() { s.observe("remove", err) }()

	name, err = domain.ValidateName(name)
	if err != nil {
		return err
	}

	if err := s.gateway.Delete(ctx, name); err != nil {
		return &domain.GatewayError{Op: "delete", Key: name, Err: err}
	}
	s.logger.Debug("item removed", zap.String("name", name))
	return nil
}

// ListItems re-fetches the whole inventory, sorted by name for a stable base order.
func (s *InventoryService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.gateway.ListAll(ctx)
	if err != nil {
		return nil, &domain.GatewayError{Op: "list", Err: err}
	}
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	if s.observer != nil {
		s.observer.ObserveItemCount(len(items))
	}
	return items, nil
}

func (s *InventoryService) observe(op string, err error) {
	if err != nil {
		s.logger.Warn("mutation failed", zap.String("op", op), zap.Error(err))
	}
	if s.observer != nil {
		s.observer.ObserveMutation(op, err)
	}
}

func validate(name, rawQuantity string) (string, int, error) {
	name, err := domain.ValidateName(name)
	if err != nil {
		return "", 0, err
	}
	quantity, err := domain.ParseQuantity(rawQuantity)
	if err != nil {
		return "", 0, err
	}
	return name, quantity, nil
}
