package orderdetail

import "time"

// OrderDetail is a priced snapshot of one product inside a purchase.
// UnitPrice and TotalPrice are captured at purchase time and never follow
// later catalog price changes.
type OrderDetail struct {
	ID            int64
	PurchaseID    int64
	ProductID     int64
	Quantity      int64
	UnitPrice     float64
	TotalPrice    float64
	SelectedColor string
	CreatedAt     time.Time
}
