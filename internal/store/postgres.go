package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

// Postgres persists the order collection in two tables. Save replaces the
// whole snapshot in one transaction, which keeps the store contract identical
// to the file backend: after Save, Load returns exactly what was saved, in the
// same order.
type Postgres struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                   TEXT PRIMARY KEY,
	position             INT NOT NULL,
	table_name           TEXT NOT NULL,
	amount               TEXT NOT NULL,
	status               TEXT NOT NULL,
	payment_status       TEXT NOT NULL,
	special_instructions TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id    TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	quantity    INT NOT NULL,
	price       TEXT NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (order_id, position)
);
`

func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("pool.Exec schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context) ([]domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, table_name, amount, status, payment_status, special_instructions, created_at, updated_at
		FROM orders
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrder: %w", err)
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	itemRows, err := p.pool.Query(ctx, `
		SELECT order_id, id, name, quantity, price, category, description
		FROM order_items
		ORDER BY order_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query order_items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID  string
			item     domain.OrderItem
			rawPrice string
		)
		if err := itemRows.Scan(&orderID, &item.ID, &item.Name, &item.Quantity, &rawPrice, &item.Category, &item.Description); err != nil {
			return nil, fmt.Errorf("itemRows.Scan: %w", err)
		}

		item.Price, err = decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("decimal.NewFromString[%s]: %w", rawPrice, err)
		}

		i, ok := index[orderID]
		if !ok {
			return nil, fmt.Errorf("order item references unknown order %s", orderID)
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("itemRows.Err: %w", err)
	}

	return orders, nil
}

func (p *Postgres) Save(ctx context.Context, orders []domain.Order) (txErr error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pool.Begin: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM order_items`); err != nil {
		return fmt.Errorf("delete order_items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}

	batch := &pgx.Batch{}
	for pos, order := range orders {
		batch.Queue(`
			INSERT INTO orders (id, position, table_name, amount, status, payment_status, special_instructions, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			order.ID, pos, order.Table, order.Amount.String(), string(order.Status),
			string(order.PaymentStatus), order.SpecialInstructions,
			order.CreatedAt.UTC(), order.UpdatedAt.UTC())

		for itemPos, item := range order.Items {
			batch.Queue(`
				INSERT INTO order_items (order_id, position, id, name, quantity, price, category, description)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				order.ID, itemPos, item.ID, item.Name, item.Quantity,
				item.Price.String(), item.Category, item.Description)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("tx.SendBatch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}

func scanOrder(rows pgx.Rows) (domain.Order, error) {
	var (
		order     domain.Order
		rawAmount string
		status    string
		payment   string
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(&order.ID, &order.Table, &rawAmount, &status, &payment,
		&order.SpecialInstructions, &createdAt, &updatedAt)
	if err != nil {
		return order, fmt.Errorf("rows.Scan: %w", err)
	}

	order.Amount, err = decimal.NewFromString(rawAmount)
	if err != nil {
		return order, fmt.Errorf("decimal.NewFromString[%s]: %w", rawAmount, err)
	}

	order.Status, err = domain.ToOrderStatus(status)
	if err != nil {
		return order, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	order.PaymentStatus, err = domain.ToPaymentStatus(payment)
	if err != nil {
		return order, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", payment, err)
	}

	order.CreatedAt = createdAt.UTC()
	order.UpdatedAt = updatedAt.UTC()

	return order, nil
}
