package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                  string          `json:"id"`
	Table               string          `json:"table"`
	Items               []OrderItem     `json:"items"`
	Amount              decimal.Decimal `json:"amount"`
	Status              OrderStatus     `json:"status"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

// CreateOrderInput carries the caller-supplied part of a new order.
// ID, CreatedAt and UpdatedAt are assigned by the lifecycle service.
type CreateOrderInput struct {
	Table               string          `json:"table"`
	Items               []OrderItem     `json:"items"`
	Amount              decimal.Decimal `json:"amount"`
	Status              OrderStatus     `json:"status,omitempty"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

func (in CreateOrderInput) Validate() error {
	if strings.TrimSpace(in.Table) == "" {
		return ValidationError{Reason: "table must not be empty"}
	}

	if err := validateItems(in.Items); err != nil {
		return err
	}

	if in.Amount.IsNegative() {
		return ValidationError{Reason: "amount must not be negative"}
	}

	if in.Status != "" {
		if _, err := ToOrderStatus(string(in.Status)); err != nil {
			return ValidationError{Reason: err.Error()}
		}
	}

	if in.PaymentStatus != "" {
		if _, err := ToPaymentStatus(string(in.PaymentStatus)); err != nil {
			return ValidationError{Reason: err.Error()}
		}
	}

	return nil
}

// OrderPatch is a partial update of an order. Nil fields are left untouched.
// A patch is applied atomically: if any part of it is rejected, none of it is.
type OrderPatch struct {
	Table               *string          `json:"table,omitempty"`
	Items               []OrderItem      `json:"items,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	Status              *OrderStatus     `json:"status,omitempty"`
	PaymentStatus       *PaymentStatus   `json:"paymentStatus,omitempty"`
	SpecialInstructions *string          `json:"specialInstructions,omitempty"`
}

func (p OrderPatch) Empty() bool {
	return p.Table == nil && p.Items == nil && p.Amount == nil &&
		p.Status == nil && p.PaymentStatus == nil && p.SpecialInstructions == nil
}

// Validate checks field-level invariants only. Transition legality against the
// order's current status is the lifecycle service's concern.
func (p OrderPatch) Validate() error {
	if p.Table != nil && strings.TrimSpace(*p.Table) == "" {
		return ValidationError{Reason: "table must not be empty"}
	}

	if p.Items != nil {
		if err := validateItems(p.Items); err != nil {
			return err
		}
	}

	if p.Amount != nil && p.Amount.IsNegative() {
		return ValidationError{Reason: "amount must not be negative"}
	}

	if p.Status != nil {
		if _, err := ToOrderStatus(string(*p.Status)); err != nil {
			return ValidationError{Reason: err.Error()}
		}
	}

	if p.PaymentStatus != nil {
		if _, err := ToPaymentStatus(string(*p.PaymentStatus)); err != nil {
			return ValidationError{Reason: err.Error()}
		}
	}

	return nil
}

func validateItems(items []OrderItem) error {
	if len(items) == 0 {
		return ValidationError{Reason: "order must have at least one item"}
	}

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return ValidationError{Reason: "item name must not be empty"}
		}
		if item.Quantity < 1 {
			return ValidationError{Reason: "item quantity must be at least 1"}
		}
		if item.Price.IsNegative() {
			return ValidationError{Reason: "item price must not be negative"}
		}
	}

	return nil
}
