package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
	"github.com/visheshtachauhan/aharic-orders/internal/port"
)

// Orders is the order lifecycle manager. It owns the canonical in-memory
// collection (newest first), enforces status transition legality and writes
// the whole snapshot to the store after every accepted mutation.
//
// Mutations are serialized by a single mutex. A failed store write does not
// roll back the in-memory mutation; it is surfaced wrapped in
// domain.ErrPersistence so callers can warn that state may not survive a
// restart.
type Orders struct {
	mu     sync.Mutex
	orders []domain.Order

	store    port.OrderStore
	notifier port.OrderNotifier
	log      *slog.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*Orders)

// WithNotifier publishes lifecycle events after accepted mutations. Publish
// failures are logged and never fail the mutation.
func WithNotifier(n port.OrderNotifier) Option {
	return func(o *Orders) { o.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orders) { o.now = now }
}

// WithSeed supplies the collection to start from when the store holds nothing.
func WithSeed(orders []domain.Order) Option {
	return func(o *Orders) {
		if len(o.orders) == 0 {
			o.orders = slices.Clone(orders)
		}
	}
}

func New(ctx context.Context, store port.OrderStore, log *slog.Logger, opts ...Option) (*Orders, error) {
	orders, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.Load: %w", err)
	}

	o := &Orders{
		orders: orders,
		store:  store,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

func (s *Orders) Create(ctx context.Context, input domain.CreateOrderInput) (domain.Order, error) {
	if err := input.Validate(); err != nil {
		return domain.Order{}, err
	}

	status := input.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusPending
	}

	now := s.now()
	order := domain.Order{
		ID:                  s.newID(),
		Table:               input.Table,
		Items:               slices.Clone(input.Items),
		Amount:              input.Amount,
		Status:              status,
		PaymentStatus:       paymentStatus,
		SpecialInstructions: input.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	s.mu.Lock()
	s.orders = append([]domain.Order{order}, s.orders...)
	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.log.Info("order created", "order_id", order.ID, "table", order.Table, "amount", order.Amount)

	if s.notifier != nil {
		if err := s.notifier.OrderCreated(ctx, order); err != nil {
			s.log.Warn("order created event not published", "order_id", order.ID, "error", err)
		}
	}

	return order, persistErr
}

// Update applies a partial patch. If the patch carries a status, the change is
// checked against the transition table; an illegal transition rejects the
// whole patch, leaving the order untouched.
func (s *Orders) Update(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error) {
	if err := patch.Validate(); err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()

	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	order := s.orders[i]

	if patch.Status != nil {
		if err := domain.CheckTransition(order, *patch.Status); err != nil {
			s.mu.Unlock()
			s.log.Warn("status transition rejected",
				"order_id", id, "from", order.Status, "to", *patch.Status)
			return domain.Order{}, err
		}
		order.Status = *patch.Status
	}

	if patch.Table != nil {
		order.Table = *patch.Table
	}
	if patch.Items != nil {
		order.Items = slices.Clone(patch.Items)
	}
	if patch.Amount != nil {
		order.Amount = *patch.Amount
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.SpecialInstructions != nil {
		order.SpecialInstructions = *patch.SpecialInstructions
	}

	order.UpdatedAt = s.now()
	s.orders[i] = order

	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.log.Info("order updated", "order_id", id, "status", order.Status, "payment_status", order.PaymentStatus)

	if s.notifier != nil {
		if err := s.notifier.OrderUpdated(ctx, order); err != nil {
			s.log.Warn("order updated event not published", "order_id", id, "error", err)
		}
	}

	return order, persistErr
}

// Delete removes the order if present. Deleting an absent order is a no-op,
// not an error.
func (s *Orders) Delete(ctx context.Context, id string) error {
	s.mu.Lock()

	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}

	s.orders = slices.Delete(s.orders, i, i+1)
	persistErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.log.Info("order deleted", "order_id", id)

	if s.notifier != nil {
		if err := s.notifier.OrderDeleted(ctx, id); err != nil {
			s.log.Warn("order deleted event not published", "order_id", id, "error", err)
		}
	}

	return persistErr
}

func (s *Orders) Get(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	order := s.orders[i]
	order.Items = slices.Clone(order.Items)
	return order, nil
}

// List returns orders matching the filter in stored (newest-first) order.
// An empty filter returns everything.
func (s *Orders) List(filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	return lo.Filter(s.snapshot(), func(o domain.Order, _ int) bool {
		return filter.Matches(o)
	}), nil
}

func (s *Orders) ByStatus(status domain.OrderStatus) []domain.Order {
	orders, _ := s.List(domain.OrderFilter{Statuses: []domain.OrderStatus{status}})
	return orders
}

func (s *Orders) ByPaymentStatus(status domain.PaymentStatus) []domain.Order {
	orders, _ := s.List(domain.OrderFilter{PaymentStatuses: []domain.PaymentStatus{status}})
	return orders
}

// ByDate filters by literal prefix of the RFC3339 createdAt timestamp.
func (s *Orders) ByDate(datePrefix string) []domain.Order {
	orders, _ := s.List(domain.OrderFilter{CreatedOn: datePrefix})
	return orders
}

// DailySales sums the amounts of paid orders created on the given date.
func (s *Orders) DailySales(datePrefix string) decimal.Decimal {
	return sumPaid(s.ByDate(datePrefix))
}

// TotalSales sums the amounts of all paid orders, regardless of date.
func (s *Orders) TotalSales() decimal.Decimal {
	return sumPaid(s.snapshot())
}

func sumPaid(orders []domain.Order) decimal.Decimal {
	return lo.Reduce(orders, func(total decimal.Decimal, o domain.Order, _ int) decimal.Decimal {
		if o.PaymentStatus == domain.PaymentStatusPaid {
			return total.Add(o.Amount)
		}
		return total
	}, decimal.Zero)
}

func (s *Orders) snapshot() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := slices.Clone(s.orders)
	for i := range snapshot {
		snapshot[i].Items = slices.Clone(snapshot[i].Items)
	}
	return snapshot
}

func (s *Orders) indexLocked(id string) int {
	return slices.IndexFunc(s.orders, func(o domain.Order) bool { return o.ID == id })
}

func (s *Orders) persistLocked(ctx context.Context) error {
	if err := s.store.Save(ctx, s.orders); err != nil {
		s.log.Warn("order snapshot not persisted, in-memory state retained", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}
