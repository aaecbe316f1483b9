package purchase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"approved to completed", StatusApproved, StatusCompleted, true},
		{"approved back to pending", StatusApproved, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusApproved, false},
		{"rejected is terminal", StatusRejected, StatusApproved, false},
		{"failed is terminal", StatusFailed, StatusPending, false},
		{"same status is not a transition", StatusApproved, StatusApproved, false},
		{"unknown source", Status("WEIRD"), StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusCompleted, StatusRejected, StatusCancelled, StatusFailed} {
		require.True(t, s.IsValid(), "status %s should be valid", s)
	}
	require.False(t, Status("PAID").IsValid())
	require.False(t, Status("").IsValid())
}

func TestStatusIsPaid(t *testing.T) {
	require.True(t, StatusApproved.IsPaid())
	require.True(t, StatusCompleted.IsPaid())
	require.False(t, StatusPending.IsPaid())
	require.False(t, StatusRejected.IsPaid())
}

func TestOrderStatusIsValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		require.True(t, s.IsValid(), "order status %s should be valid", s)
	}
	require.False(t, OrderStatus("RETURNED").IsValid())
}
