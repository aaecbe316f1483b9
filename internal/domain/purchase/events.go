package purchase

import (
	"encoding/json"
	"time"
)

const (
	EventPurchaseCreated      = "PurchaseCreated"
	EventPaymentStatusChanged = "PaymentStatusChanged"
)

const TopicPurchaseEvents = "storefront.purchase.events"

// Envelope wraps every published event. Payload stays raw so consumers can
// decode per event type.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemSnapshot struct {
	ProductID  int64   `json:"product_id"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type PurchaseCreatedPayload struct {
	PurchaseID        int64          `json:"purchase_id"`
	ExternalReference string         `json:"external_reference"`
	Email             string         `json:"email"`
	AmountCents       int64          `json:"amount_cents"`
	Currency          string         `json:"currency"`
	Items             []ItemSnapshot `json:"items"`
}

type PaymentStatusChangedPayload struct {
	PurchaseID        int64  `json:"purchase_id"`
	ExternalReference string `json:"external_reference"`
	TransactionID     string `json:"transaction_id,omitempty"`
	PreviousStatus    Status `json:"previous_status"`
	NewStatus         Status `json:"new_status"`
}

// PartitionKey keeps every event of one purchase on the same partition so
// consumers observe them in order.
func PartitionKey(reference string) []byte { return []byte(reference) }
