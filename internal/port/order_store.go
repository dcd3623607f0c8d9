package port

import (
	"context"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

// OrderStore persists the full, ordered order collection as one durable
// snapshot. The lifecycle service owns the in-memory working copy; stores only
// load it at startup and overwrite it after each accepted mutation.
type OrderStore interface {
	Load(ctx context.Context) ([]domain.Order, error)
	Save(ctx context.Context, orders []domain.Order) error
}

// OrderNotifier relays lifecycle events to an external channel, e.g. a message
// broker feeding live dashboards. Delivery guarantees are the channel's
// problem, not the lifecycle service's.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order domain.Order) error
	OrderUpdated(ctx context.Context, order domain.Order) error
	OrderDeleted(ctx context.Context, orderID string) error
}
