package store

import (
	"context"
	"slices"
	"sync"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

// Memory holds the order collection in process memory. It backs tests and
// ephemeral deployments where durability across restarts does not matter.
type Memory struct {
	mu     sync.RWMutex
	orders []domain.Order
}

func NewMemory(seed ...domain.Order) *Memory {
	return &Memory{orders: cloneOrders(seed)}
}

func (m *Memory) Load(_ context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneOrders(m.orders), nil
}

func (m *Memory) Save(_ context.Context, orders []domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = cloneOrders(orders)
	return nil
}

func cloneOrders(orders []domain.Order) []domain.Order {
	cloned := slices.Clone(orders)
	for i := range cloned {
		cloned[i].Items = slices.Clone(cloned[i].Items)
	}
	return cloned
}
