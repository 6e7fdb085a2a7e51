package orders

import "github.com/opticamarket/marketplace-backend/pkg/enums"

var validNext = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusCancelled},
	enums.OrderStatusPaid:      {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// CanTransition reports whether a seller or admin may move an order from one status to
// another. Payment-driven PAID never goes through this table.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range validNext[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedNext lists the statuses reachable from the given one.
func AllowedNext(from enums.OrderStatus) []enums.OrderStatus {
	next := validNext[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}
