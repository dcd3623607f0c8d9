package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderFilter has AND semantics across fields, OR semantics within each field
// slice. A zero filter matches every order.
type OrderFilter struct {
	Statuses        []OrderStatus
	PaymentStatuses []PaymentStatus

	// CreatedOn filters by literal string prefix of the RFC3339 createdAt
	// timestamp, e.g. "2024-03-01" for calendar-day filtering. This is a
	// prefix match, not a time-zone-aware range query.
	CreatedOn string
}

func (f OrderFilter) Empty() bool {
	return len(f.Statuses) == 0 && len(f.PaymentStatuses) == 0 && f.CreatedOn == ""
}

func (f OrderFilter) Validate() error {
	for _, status := range f.Statuses {
		if _, err := ToOrderStatus(string(status)); err != nil {
			return ValidationError{Reason: fmt.Sprintf("status %q: %v", status, err)}
		}
	}

	for _, status := range f.PaymentStatuses {
		if _, err := ToPaymentStatus(string(status)); err != nil {
			return ValidationError{Reason: fmt.Sprintf("payment status %q: %v", status, err)}
		}
	}

	return nil
}

func (f OrderFilter) Matches(o Order) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
		return false
	}

	if len(f.PaymentStatuses) > 0 && !containsPaymentStatus(f.PaymentStatuses, o.PaymentStatus) {
		return false
	}

	if f.CreatedOn != "" {
		stamp := o.CreatedAt.UTC().Format(time.RFC3339)
		if !strings.HasPrefix(stamp, f.CreatedOn) {
			return false
		}
	}

	return true
}

func containsStatus(statuses []OrderStatus, s OrderStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

func containsPaymentStatus(statuses []PaymentStatus, s PaymentStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
