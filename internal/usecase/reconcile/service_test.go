package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/email"
)

type mockPurchaseRepository struct {
	byTransaction map[string]*dompurchase.Purchase
	byReference   map[string]*dompurchase.Purchase
	statusUpdates map[int64]dompurchase.Status
	refUpdates    map[string]dompurchase.Status
	updateErr     error
}

func newMockPurchaseRepository() *mockPurchaseRepository {
	return &mockPurchaseRepository{
		byTransaction: make(map[string]*dompurchase.Purchase),
		byReference:   make(map[string]*dompurchase.Purchase),
		statusUpdates: make(map[int64]dompurchase.Status),
		refUpdates:    make(map[string]dompurchase.Status),
	}
}

func (m *mockPurchaseRepository) GetByTransactionID(ctx context.Context, transactionID string) (*dompurchase.Purchase, error) {
	if p, ok := m.byTransaction[transactionID]; ok {
		cloned := *p
		return &cloned, nil
	}
	return nil, dompurchase.ErrPurchaseNotFound
}

func (m *mockPurchaseRepository) GetByReference(ctx context.Context, reference string) (*dompurchase.Purchase, error) {
	if p, ok := m.byReference[reference]; ok {
		cloned := *p
		return &cloned, nil
	}
	return nil, dompurchase.ErrPurchaseNotFound
}

func (m *mockPurchaseRepository) UpdateStatus(ctx context.Context, id int64, status dompurchase.Status) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates[id] = status
	return nil
}

func (m *mockPurchaseRepository) UpdateStatusByReference(ctx context.Context, reference string, status dompurchase.Status) (int64, error) {
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	m.refUpdates[reference] = status
	return 1, nil
}

type mockProducts struct{}

func (m *mockProducts) GetByIDs(ctx context.Context, ids []int64) ([]*domproduct.Product, error) {
	out := make([]*domproduct.Product, 0, len(ids))
	for _, id := range ids {
		if id == 1 {
			out = append(out, &domproduct.Product{ID: 1, Name: "Phone Case"})
		}
	}
	return out, nil
}

type mockEmailSender struct {
	sent    []email.ConfirmationPayload
	sendErr error
}

func (m *mockEmailSender) SendPaymentConfirmation(ctx context.Context, p email.ConfirmationPayload) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, p)
	return nil
}

type mockPublisher struct {
	events []string
}

func (m *mockPublisher) Publish(ctx context.Context, eventType, correlationID string, payload any) {
	m.events = append(m.events, eventType)
}

func pendingPurchase() *dompurchase.Purchase {
	return &dompurchase.Purchase{
		ID:                 7,
		Email:              "buyer@example.com",
		FullName:           "Ana Gomez",
		Status:             dompurchase.StatusPending,
		AmountCents:        10000,
		Currency:           "COP",
		ExternalReference:  "REF-1700000000000-abcdefghi",
		WompiTransactionID: "trx-1",
		Details: []domdetail.OrderDetail{
			{ID: 1, PurchaseID: 7, ProductID: 1, Quantity: 2, UnitPrice: 50, TotalPrice: 100},
		},
	}
}

func newTestService() (*Service, *mockPurchaseRepository, *mockEmailSender, *mockPublisher) {
	repo := newMockPurchaseRepository()
	emails := &mockEmailSender{}
	events := &mockPublisher{}
	return NewService(repo, &mockProducts{}, emails, events), repo, emails, events
}

func TestUpdatePaymentStatus_UnknownTransactionIsNoOp(t *testing.T) {
	svc, repo, emails, events := newTestService()

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-missing", dompurchase.StatusApproved, "")

	require.NoError(t, err)
	require.Zero(t, id)
	require.Empty(t, repo.statusUpdates)
	require.Empty(t, emails.sent)
	require.Empty(t, events.events)
}

func TestUpdatePaymentStatus_FallsBackToReference(t *testing.T) {
	svc, repo, _, _ := newTestService()
	p := pendingPurchase()
	repo.byReference[p.ExternalReference] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-unknown", dompurchase.StatusApproved, p.ExternalReference)

	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.Equal(t, dompurchase.StatusApproved, repo.statusUpdates[7])
}

func TestUpdatePaymentStatus_ApprovedSendsConfirmationEmail(t *testing.T) {
	svc, repo, emails, events := newTestService()
	p := pendingPurchase()
	repo.byTransaction["trx-1"] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.StatusApproved, "")

	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.Equal(t, dompurchase.StatusApproved, repo.statusUpdates[7])
	require.Len(t, emails.sent, 1)
	require.Equal(t, "buyer@example.com", emails.sent[0].To)
	require.Equal(t, "Phone Case", emails.sent[0].Items[0].Name)
	require.Equal(t, []string{dompurchase.EventPaymentStatusChanged}, events.events)
}

func TestUpdatePaymentStatus_RejectedSkipsEmail(t *testing.T) {
	svc, repo, emails, events := newTestService()
	p := pendingPurchase()
	repo.byTransaction["trx-1"] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.StatusRejected, "")

	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.Equal(t, dompurchase.StatusRejected, repo.statusUpdates[7])
	require.Empty(t, emails.sent)
	require.Len(t, events.events, 1)
}

func TestUpdatePaymentStatus_DisallowedTransitionIgnored(t *testing.T) {
	svc, repo, emails, events := newTestService()
	p := pendingPurchase()
	p.Status = dompurchase.StatusCompleted
	repo.byTransaction["trx-1"] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.StatusRejected, "")

	require.NoError(t, err)
	require.Zero(t, id)
	require.Empty(t, repo.statusUpdates, "terminal purchases must not be overwritten")
	require.Empty(t, emails.sent)
	require.Empty(t, events.events)
}

func TestUpdatePaymentStatus_DuplicateDeliveryIgnored(t *testing.T) {
	svc, repo, emails, _ := newTestService()
	p := pendingPurchase()
	p.Status = dompurchase.StatusApproved
	repo.byTransaction["trx-1"] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.StatusApproved, "")

	require.NoError(t, err)
	require.Zero(t, id)
	require.Empty(t, repo.statusUpdates)
	require.Empty(t, emails.sent, "a replayed approval must not re-send the email")
}

func TestUpdatePaymentStatus_InvalidStatusRejected(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.Status("PAID"), "")

	require.ErrorIs(t, err, dompurchase.ErrInvalidStatus)
}

func TestUpdatePaymentStatus_EmailFailureDoesNotFailReconciliation(t *testing.T) {
	svc, repo, emails, _ := newTestService()
	emails.sendErr = errors.New("smtp down")
	p := pendingPurchase()
	repo.byTransaction["trx-1"] = p

	id, err := svc.UpdatePaymentStatus(context.Background(), "trx-1", dompurchase.StatusApproved, "")

	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.Equal(t, dompurchase.StatusApproved, repo.statusUpdates[7])
}

func TestUpdatePurchaseStatusByReference(t *testing.T) {
	svc, repo, _, events := newTestService()
	p := pendingPurchase()
	repo.byReference[p.ExternalReference] = p

	err := svc.UpdatePurchaseStatusByReference(context.Background(), p.ExternalReference, dompurchase.StatusFailed)

	require.NoError(t, err)
	require.Equal(t, dompurchase.StatusFailed, repo.refUpdates[p.ExternalReference])
	require.Len(t, events.events, 1)
}

func TestUpdatePurchaseStatusByReference_UnknownReferenceIsNoOp(t *testing.T) {
	svc, repo, _, _ := newTestService()

	err := svc.UpdatePurchaseStatusByReference(context.Background(), "REF-0-aaaaaaaaa", dompurchase.StatusFailed)

	require.NoError(t, err)
	require.Empty(t, repo.refUpdates)
}
