package cache

import "time"

const (
	// Status cache: purchase_status:{purchase_id} -> {"status":...,"order_status":...}
	KeyPurchaseStatus = "purchase_status:%d"

	// Webhook dedup: dedup:wompi:{transaction_id}:{status}
	KeyWebhookDedup = "dedup:wompi:%s:%s"
)

var (
	TTLStatusCache  = 5 * time.Minute
	TTLWebhookDedup = 48 * time.Hour
)
