package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	return result
}

// statusTransitions defines the legal lifecycle edges. Completed and cancelled
// are terminal, and a status may never transition to itself.
var statusTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusInProgress: true, OrderStatusCancelled: true},
	OrderStatusInProgress: {OrderStatusCompleted: true, OrderStatusCancelled: true},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func IsValidTransition(from, to OrderStatus) bool {
	next := statusTransitions[from]
	return next != nil && next[to]
}

func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CheckTransition reports whether the order may move to the requested status.
// It is a pure function of the order's current status and the target.
func CheckTransition(o Order, to OrderStatus) error {
	if !IsValidTransition(o.Status, to) {
		return InvalidTransitionError{From: o.Status, To: to}
	}
	return nil
}
