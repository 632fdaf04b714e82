package orders

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// allowedTransitions lists the statuses reachable from each status. Statuses
// without an entry are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusApproved,
		enums.OrderStatusRejected,
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusApproved: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCompleted,
		enums.OrderStatusCancelled,
	},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedFrom returns the statuses reachable from the given one.
func AllowedFrom(from enums.OrderStatus) []enums.OrderStatus {
	next := allowedTransitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no further transition is allowed.
func IsTerminal(status enums.OrderStatus) bool {
	return len(allowedTransitions[status]) == 0
}
