package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
	"github.com/visheshtachauhan/aharic-orders/internal/port"
	"github.com/visheshtachauhan/aharic-orders/internal/service"
	"github.com/visheshtachauhan/aharic-orders/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// failingStore loads fine but refuses every save.
type failingStore struct {
	*store.Memory
	saveErr error
}

func (f *failingStore) Save(_ context.Context, _ []domain.Order) error {
	return f.saveErr
}

// recordingNotifier collects published events.
type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) OrderCreated(_ context.Context, o domain.Order) error {
	r.events = append(r.events, "created:"+o.ID)
	return nil
}

func (r *recordingNotifier) OrderUpdated(_ context.Context, o domain.Order) error {
	r.events = append(r.events, "updated:"+o.ID)
	return nil
}

func (r *recordingNotifier) OrderDeleted(_ context.Context, id string) error {
	r.events = append(r.events, "deleted:"+id)
	return nil
}

func newOrders(t *testing.T, s port.OrderStore, opts ...service.Option) *service.Orders {
	t.Helper()

	orders, err := service.New(t.Context(), s, slog.New(slog.DiscardHandler), opts...)
	require.NoError(t, err)
	return orders
}

func newInput() domain.CreateOrderInput {
	return domain.CreateOrderInput{
		Table: gofakeit.Word(),
		Items: []domain.OrderItem{
			{
				ID:       gofakeit.UUID(),
				Name:     gofakeit.Dinner(),
				Quantity: gofakeit.Number(1, 4),
				Price:    decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
				Category: gofakeit.Word(),
			},
		},
		Amount: decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2),
	}
}

func TestCreateDefaults(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	created, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.OrderStatusPending, created.Status)
	assert.Equal(t, domain.PaymentStatusPending, created.PaymentStatus)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	assert.False(t, created.CreatedAt.IsZero())

	got, err := orders.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateValidation(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	input := newInput()
	input.Table = ""

	_, err := orders.Create(t.Context(), input)
	require.EqualError(t, err, "validation failed: table must not be empty")

	all, err := orders.List(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateNewestFirst(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	first, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)
	second, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	all, err := orders.List(domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestUpdateTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      domain.OrderStatus
		to        domain.OrderStatus
		wantError bool
	}{
		{name: "pending to in-progress", from: domain.OrderStatusPending, to: domain.OrderStatusInProgress},
		{name: "pending to cancelled", from: domain.OrderStatusPending, to: domain.OrderStatusCancelled},
		{name: "in-progress to completed", from: domain.OrderStatusInProgress, to: domain.OrderStatusCompleted},
		{name: "pending to completed", from: domain.OrderStatusPending, to: domain.OrderStatusCompleted, wantError: true},
		{name: "in-progress to pending", from: domain.OrderStatusInProgress, to: domain.OrderStatusPending, wantError: true},
		{name: "completed to cancelled", from: domain.OrderStatusCompleted, to: domain.OrderStatusCancelled, wantError: true},
		{name: "cancelled to in-progress", from: domain.OrderStatusCancelled, to: domain.OrderStatusInProgress, wantError: true},
		{name: "pending to pending", from: domain.OrderStatusPending, to: domain.OrderStatusPending, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := newOrders(t, store.NewMemory())

			input := newInput()
			input.Status = tt.from

			created, err := orders.Create(t.Context(), input)
			require.NoError(t, err)

			updated, err := orders.Update(t.Context(), created.ID, domain.OrderPatch{
				Status: lo.ToPtr(tt.to),
			})

			if tt.wantError {
				var transitionErr domain.InvalidTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, tt.from, transitionErr.From)
				assert.Equal(t, tt.to, transitionErr.To)

				got, err := orders.Get(created.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.from, got.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestUpdateRejectsWholePatchOnInvalidTransition(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	created, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	// Illegal status change plus an otherwise fine payment change: the whole
	// patch must be refused.
	_, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		Status:        lo.ToPtr(domain.OrderStatusCompleted),
		PaymentStatus: lo.ToPtr(domain.PaymentStatusPaid),
	})

	var transitionErr domain.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	got, err := orders.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, domain.PaymentStatusPending, got.PaymentStatus)
	assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdateNotFound(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	_, err := orders.Update(t.Context(), gofakeit.UUID(), domain.OrderPatch{
		PaymentStatus: lo.ToPtr(domain.PaymentStatusPaid),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatedAtMonotonic(t *testing.T) {
	current := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	orders := newOrders(t, store.NewMemory(), service.WithClock(clock))

	created, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	previous := created.UpdatedAt
	for _, patch := range []domain.OrderPatch{
		{Status: lo.ToPtr(domain.OrderStatusInProgress)},
		{PaymentStatus: lo.ToPtr(domain.PaymentStatusPaid)},
		{SpecialInstructions: lo.ToPtr("less spicy")},
	} {
		updated, err := orders.Update(t.Context(), created.ID, patch)
		require.NoError(t, err)

		assert.False(t, updated.UpdatedAt.Before(previous))
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
		previous = updated.UpdatedAt
	}
}

func TestDeleteIdempotent(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	created, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	require.NoError(t, orders.Delete(t.Context(), created.ID))

	_, err = orders.Get(created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Second delete is a no-op, not an error.
	require.NoError(t, orders.Delete(t.Context(), created.ID))

	all, err := orders.List(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAggregates(t *testing.T) {
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := newOrders(t, store.NewMemory(), service.WithClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))

	paidToday := newInput()
	paidToday.Amount = decimal.NewFromInt(120)
	paidToday.PaymentStatus = domain.PaymentStatusPaid

	unpaidToday := newInput()
	unpaidToday.Amount = decimal.NewFromInt(55)

	_, err := orders.Create(t.Context(), paidToday)
	require.NoError(t, err)
	_, err = orders.Create(t.Context(), unpaidToday)
	require.NoError(t, err)

	// A paid order on another day.
	current = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	paidTomorrow := newInput()
	paidTomorrow.Amount = decimal.NewFromInt(200)
	paidTomorrow.PaymentStatus = domain.PaymentStatusPaid

	_, err = orders.Create(t.Context(), paidTomorrow)
	require.NoError(t, err)

	assert.True(t, orders.TotalSales().Equal(decimal.NewFromInt(320)), "total sales %s", orders.TotalSales())
	assert.True(t, orders.DailySales("2024-03-01").Equal(decimal.NewFromInt(120)))
	assert.True(t, orders.DailySales("2024-03-02").Equal(decimal.NewFromInt(200)))
	assert.True(t, orders.DailySales("2024-04").Equal(decimal.Zero))

	assert.Len(t, orders.ByDate("2024-03-01"), 2)
	assert.Len(t, orders.ByDate("2024-03"), 3)
	assert.Len(t, orders.ByPaymentStatus(domain.PaymentStatusPaid), 2)
	assert.Len(t, orders.ByStatus(domain.OrderStatusPending), 3)

	// Adding a non-paid order must not change total sales.
	_, err = orders.Create(t.Context(), newInput())
	require.NoError(t, err)
	assert.True(t, orders.TotalSales().Equal(decimal.NewFromInt(320)))
}

func TestPersistenceFailureKeepsInMemoryMutation(t *testing.T) {
	failing := &failingStore{Memory: store.NewMemory(), saveErr: errors.New("disk full")}
	orders := newOrders(t, failing)

	created, err := orders.Create(t.Context(), newInput())
	require.ErrorIs(t, err, domain.ErrPersistence)

	// The mutation stands despite the failed write.
	got, err := orders.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestSeedUsedWhenStoreEmpty(t *testing.T) {
	seed := []domain.Order{{
		ID:            gofakeit.UUID(),
		Table:         "Table 1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}}

	orders := newOrders(t, store.NewMemory(), service.WithSeed(seed))

	got, err := orders.Get(seed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Table 1", got.Table)

	// A non-empty store wins over the seed.
	persisted := domain.Order{ID: gofakeit.UUID(), Table: "Table 9"}
	orders = newOrders(t, store.NewMemory(persisted), service.WithSeed(seed))

	_, err = orders.Get(seed[0].ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotifierReceivesLifecycleEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	orders := newOrders(t, store.NewMemory(), service.WithNotifier(notifier))

	created, err := orders.Create(t.Context(), newInput())
	require.NoError(t, err)

	_, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		PaymentStatus: lo.ToPtr(domain.PaymentStatusPaid),
	})
	require.NoError(t, err)

	require.NoError(t, orders.Delete(t.Context(), created.ID))

	assert.Equal(t, []string{
		"created:" + created.ID,
		"updated:" + created.ID,
		"deleted:" + created.ID,
	}, notifier.events)
}

func TestEndToEndLifecycle(t *testing.T) {
	orders := newOrders(t, store.NewMemory())

	created, err := orders.Create(t.Context(), domain.CreateOrderInput{
		Table: "5",
		Items: []domain.OrderItem{
			{ID: "i1", Name: "Naan", Quantity: 2, Price: decimal.NewFromInt(40), Category: "Breads"},
		},
		Amount: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, created.Status)

	updated, err := orders.Update(t.Context(), created.ID, domain.OrderPatch{
		Status: lo.ToPtr(domain.OrderStatusInProgress),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, updated.Status)

	_, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		Status: lo.ToPtr(domain.OrderStatusPending),
	})
	var transitionErr domain.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	got, err := orders.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, got.Status)

	updated, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		Status: lo.ToPtr(domain.OrderStatusCompleted),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, updated.Status)

	_, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		Status: lo.ToPtr(domain.OrderStatusCancelled),
	})
	require.ErrorAs(t, err, &transitionErr)

	got, err = orders.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, got.Status)

	_, err = orders.Update(t.Context(), created.ID, domain.OrderPatch{
		PaymentStatus: lo.ToPtr(domain.PaymentStatusPaid),
	})
	require.NoError(t, err)

	assert.True(t, orders.TotalSales().Equal(decimal.NewFromInt(80)))
}
