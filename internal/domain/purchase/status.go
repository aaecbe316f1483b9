package purchase

// Status is the payment lifecycle of a purchase.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusRejected, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// IsPaid reports whether the purchase reached a state where payment went
// through (confirmation emails and revenue reporting key off this).
func (s Status) IsPaid() bool {
	return s == StatusApproved || s == StatusCompleted
}

var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved:  true,
		StatusCompleted: true,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusFailed:    true,
	},
	StatusApproved: {StatusCompleted: true},
}

// CanTransition reports whether from -> to is an allowed payment-status
// move. There is no path back to PENDING and terminal states absorb, which
// makes duplicate or stale webhook deliveries ignorable.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// OrderStatus is the fulfillment lifecycle, independent of payment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}
