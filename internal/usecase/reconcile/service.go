package reconcile

import (
	"context"
	"errors"
	"log/slog"

	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/email"
)

type PurchaseRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*dompurchase.Purchase, error)
	GetByReference(ctx context.Context, reference string) (*dompurchase.Purchase, error)
	UpdateStatus(ctx context.Context, id int64, status dompurchase.Status) error
	UpdateStatusByReference(ctx context.Context, reference string, status dompurchase.Status) (int64, error)
}

type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*domproduct.Product, error)
}

type EmailSender interface {
	SendPaymentConfirmation(ctx context.Context, p email.ConfirmationPayload) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any)
}

// Service reconciles payment status from gateway callbacks. Misses and
// disallowed transitions degrade to logged no-ops so at-least-once,
// out-of-order webhook delivery never fails the caller.
type Service struct {
	purchases PurchaseRepository
	products  ProductRepository
	emails    EmailSender
	events    EventPublisher
}

func NewService(purchases PurchaseRepository, products ProductRepository, emails EmailSender, events EventPublisher) *Service {
	return &Service{
		purchases: purchases,
		products:  products,
		emails:    emails,
		events:    events,
	}
}

// UpdatePaymentStatus looks the purchase up by gateway transaction id,
// falling back to the external reference when provided. It returns the id
// of the touched purchase, or zero when the callback was a no-op.
func (s *Service) UpdatePaymentStatus(ctx context.Context, transactionID string, status dompurchase.Status, fallbackReference string) (int64, error) {
	if !status.IsValid() {
		return 0, dompurchase.ErrInvalidStatus
	}

	p, err := s.purchases.GetByTransactionID(ctx, transactionID)
	if errors.Is(err, dompurchase.ErrPurchaseNotFound) && fallbackReference != "" {
		p, err = s.purchases.GetByReference(ctx, fallbackReference)
	}
	if errors.Is(err, dompurchase.ErrPurchaseNotFound) {
		slog.InfoContext(ctx, "payment callback for unknown purchase, ignoring",
			"transaction_id", transactionID, "reference", fallbackReference, "status", status)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return s.transition(ctx, p, status, transactionID)
}

// UpdatePurchaseStatusByReference applies the status to every purchase
// matching the reference. There should be at most one.
func (s *Service) UpdatePurchaseStatusByReference(ctx context.Context, reference string, status dompurchase.Status) error {
	if !status.IsValid() {
		return dompurchase.ErrInvalidStatus
	}

	p, err := s.purchases.GetByReference(ctx, reference)
	if errors.Is(err, dompurchase.ErrPurchaseNotFound) {
		slog.InfoContext(ctx, "status update for unknown reference, ignoring", "reference", reference, "status", status)
		return nil
	}
	if err != nil {
		return err
	}
	if !dompurchase.CanTransition(p.Status, status) {
		slog.InfoContext(ctx, "disallowed status transition, ignoring",
			"reference", reference, "from", p.Status, "to", status)
		return nil
	}

	n, err := s.purchases.UpdateStatusByReference(ctx, reference, status)
	if err != nil {
		return err
	}
	if n > 1 {
		slog.WarnContext(ctx, "reference matched multiple purchases", "reference", reference, "count", n)
	}
	s.afterTransition(ctx, p, status, p.WompiTransactionID)
	return nil
}

func (s *Service) transition(ctx context.Context, p *dompurchase.Purchase, status dompurchase.Status, transactionID string) (int64, error) {
	if !dompurchase.CanTransition(p.Status, status) {
		slog.InfoContext(ctx, "disallowed status transition, ignoring",
			"purchase_id", p.ID, "from", p.Status, "to", status)
		return 0, nil
	}
	if err := s.purchases.UpdateStatus(ctx, p.ID, status); err != nil {
		return 0, err
	}
	s.afterTransition(ctx, p, status, transactionID)
	return p.ID, nil
}

func (s *Service) afterTransition(ctx context.Context, p *dompurchase.Purchase, status dompurchase.Status, transactionID string) {
	s.events.Publish(ctx, dompurchase.EventPaymentStatusChanged, p.ExternalReference, dompurchase.PaymentStatusChangedPayload{
		PurchaseID:        p.ID,
		ExternalReference: p.ExternalReference,
		TransactionID:     transactionID,
		PreviousStatus:    p.Status,
		NewStatus:         status,
	})

	if !status.IsPaid() {
		return
	}
	// Confirmation mail is best effort; the status change already landed.
	if err := s.emails.SendPaymentConfirmation(ctx, s.confirmationFor(ctx, p)); err != nil {
		slog.ErrorContext(ctx, "confirmation email failed", "purchase_id", p.ID, "error", err)
	}
}

const unknownProductName = "Unknown Product"

func (s *Service) confirmationFor(ctx context.Context, p *dompurchase.Purchase) email.ConfirmationPayload {
	ids := make([]int64, 0, len(p.Details))
	for _, d := range p.Details {
		ids = append(ids, d.ProductID)
	}
	names := map[int64]string{}
	if products, err := s.products.GetByIDs(ctx, ids); err == nil {
		for _, prod := range products {
			names[prod.ID] = prod.Name
		}
	}

	items := make([]email.ConfirmationItem, 0, len(p.Details))
	for _, d := range p.Details {
		name, ok := names[d.ProductID]
		if !ok {
			name = unknownProductName
		}
		items = append(items, email.ConfirmationItem{
			Name:     name,
			Quantity: d.Quantity,
			Total:    d.TotalPrice,
		})
	}
	return email.ConfirmationPayload{
		To:          p.Email,
		FullName:    p.FullName,
		Reference:   p.ExternalReference,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Items:       items,
	}
}
