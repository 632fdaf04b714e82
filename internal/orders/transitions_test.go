package orders

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusApproved, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusApproved, enums.OrderStatusShipped, true},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusCompleted, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{enums.OrderStatusCompleted, enums.OrderStatusPending, false},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		want := status == enums.OrderStatusDelivered ||
			status == enums.OrderStatusCompleted ||
			status == enums.OrderStatusRejected ||
			status == enums.OrderStatusCancelled
		if got := IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}
