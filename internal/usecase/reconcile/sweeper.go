package reconcile

import (
	"context"
	"log/slog"
	"time"

	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/payment"
)

type SweeperRepository interface {
	ListPendingWithoutTransaction(ctx context.Context, before time.Time) ([]*dompurchase.Purchase, error)
	SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.CreatePaymentResult, error)
}

// Sweeper retries payment-session creation for purchases that were written
// but never got a gateway transaction id, e.g. because the gateway call
// failed mid-checkout. The retry is keyed by the external reference, so a
// session that actually did get created at the gateway is reused rather
// than duplicated.
type Sweeper struct {
	purchases SweeperRepository
	gateway   PaymentGateway
	interval  time.Duration
	minAge    time.Duration
}

func NewSweeper(purchases SweeperRepository, gateway PaymentGateway, interval, minAge time.Duration) *Sweeper {
	return &Sweeper{
		purchases: purchases,
		gateway:   gateway,
		interval:  interval,
		minAge:    minAge,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.minAge)
	pending, err := s.purchases.ListPendingWithoutTransaction(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "pending-payment sweep query failed", "error", err)
		return
	}

	for _, p := range pending {
		session, err := s.gateway.CreatePayment(ctx, payment.CreatePaymentInput{
			Reference:     p.ExternalReference,
			AmountCents:   p.AmountCents,
			Currency:      p.Currency,
			BuyerEmail:    p.Email,
			BuyerFullName: p.FullName,
			BuyerPhone:    p.ContactNumber,
		})
		if err != nil {
			slog.WarnContext(ctx, "payment session retry failed",
				"purchase_id", p.ID, "reference", p.ExternalReference, "error", err)
			continue
		}
		if err := s.purchases.SetGatewayTransaction(ctx, p.ID, session.TransactionID); err != nil {
			slog.ErrorContext(ctx, "could not attach retried gateway transaction",
				"purchase_id", p.ID, "transaction_id", session.TransactionID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "recovered pending purchase without payment session",
			"purchase_id", p.ID, "transaction_id", session.TransactionID)
	}
}
