package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/cache"
)

// wompiEvent is the gateway's callback shape. The signature covers the
// properties listed in signature.properties, concatenated in order, plus
// the timestamp and the events secret.
type wompiEvent struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			Reference string `json:"reference"`
		} `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
}

var errBadChecksum = errors.New("event checksum verification failed")

// statusByGateway maps Wompi transaction statuses onto the purchase payment
// lifecycle.
var statusByGateway = map[string]dompurchase.Status{
	"APPROVED": dompurchase.StatusApproved,
	"DECLINED": dompurchase.StatusRejected,
	"VOIDED":   dompurchase.StatusCancelled,
	"ERROR":    dompurchase.StatusFailed,
}

func (a *API) handleWompiWebhook(w http.ResponseWriter, r *http.Request) {
	var ev wompiEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()

	props := a.signedProperties(ev)
	if !a.verifier.VerifyEventChecksum(props, ev.Timestamp, ev.Signature.Checksum) {
		slog.WarnContext(r.Context(), "webhook rejected, bad checksum",
			"event", ev.Event, "transaction_id", ev.Data.Transaction.ID)
		respondError(w, http.StatusForbidden, errBadChecksum)
		return
	}

	tx := ev.Data.Transaction
	status, ok := statusByGateway[strings.ToUpper(tx.Status)]
	if !ok {
		// Unknown statuses are acknowledged so the gateway stops retrying;
		// there is nothing to reconcile.
		slog.InfoContext(r.Context(), "webhook with unmapped status, ignoring",
			"status", tx.Status, "transaction_id", tx.ID)
		writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		return
	}

	// Dedup under at-least-once delivery: the first delivery of this
	// transaction+status pair wins, replays are acknowledged untouched.
	dedupKey := fmt.Sprintf(cache.KeyWebhookDedup, tx.ID, status)
	if fresh, err := a.cache.SetNX(r.Context(), dedupKey, "1", cache.TTLWebhookDedup); err == nil && !fresh {
		writeJSON(w, http.StatusOK, map[string]string{"result": "duplicate"})
		return
	}

	purchaseID, err := a.reconcileSvc.UpdatePaymentStatus(r.Context(), tx.ID, status, tx.Reference)
	if err != nil {
		// A transient failure here must not consume the delivery: the
		// gateway retries, and the retry has to get past the dedup gate.
		_ = a.cache.Delete(r.Context(), dedupKey)
		handleDomainError(w, err)
		return
	}
	if purchaseID != 0 {
		// Whatever the checkout-result poll cached is stale now.
		_ = a.cache.Delete(r.Context(), fmt.Sprintf(cache.KeyPurchaseStatus, purchaseID))
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": "processed"})
}

// signedProperties resolves the dotted property paths the signature covers.
// Wompi signs transaction.id, transaction.status and transaction.reference
// (order matters).
func (a *API) signedProperties(ev wompiEvent) []string {
	out := make([]string, 0, len(ev.Signature.Properties))
	for _, prop := range ev.Signature.Properties {
		switch prop {
		case "transaction.id":
			out = append(out, ev.Data.Transaction.ID)
		case "transaction.status":
			out = append(out, ev.Data.Transaction.Status)
		case "transaction.reference":
			out = append(out, ev.Data.Transaction.Reference)
		}
	}
	return out
}
