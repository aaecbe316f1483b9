package purchase

import (
	"time"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
)

const ProviderWompi = "wompi"

type Purchase struct {
	ID                   int64
	Email                string
	FullName             string
	IdentificationNumber string
	ContactNumber        string
	ShippingAddress      string
	Status               Status
	OrderStatus          OrderStatus
	// AmountCents is the grand total in minor currency units on every code
	// path; decimals only exist on the per-line snapshots.
	AmountCents        int64
	Currency           string
	PaymentProvider    string
	ExternalReference  string
	WompiTransactionID string
	Details            []domdetail.OrderDetail
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BuyerPatch carries the buyer-contact corrections allowed after creation.
// Nil fields are left untouched.
type BuyerPatch struct {
	Email         *string
	FullName      *string
	ContactNumber *string
}

func (p BuyerPatch) Empty() bool {
	return p.Email == nil && p.FullName == nil && p.ContactNumber == nil
}
