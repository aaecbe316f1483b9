package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/payment"
)

type mockSweeperRepository struct {
	pending        []*dompurchase.Purchase
	lastCutoff     time.Time
	listErr        error
	transactionIDs map[int64]string
	setErr         error
}

func newMockSweeperRepository() *mockSweeperRepository {
	return &mockSweeperRepository{transactionIDs: make(map[int64]string)}
}

func (m *mockSweeperRepository) ListPendingWithoutTransaction(ctx context.Context, before time.Time) ([]*dompurchase.Purchase, error) {
	m.lastCutoff = before
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pending, nil
}

func (m *mockSweeperRepository) SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.transactionIDs[id] = transactionID
	return nil
}

type mockSweeperGateway struct {
	calls      []payment.CreatePaymentInput
	failFor    map[string]bool
	nextLinkID int
}

func (m *mockSweeperGateway) CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.CreatePaymentResult, error) {
	m.calls = append(m.calls, in)
	if m.failFor[in.Reference] {
		return nil, errors.New("gateway unavailable")
	}
	m.nextLinkID++
	return &payment.CreatePaymentResult{
		TransactionID: "link-" + in.Reference,
		PaymentURL:    "https://checkout.wompi.co/l/link-" + in.Reference,
		Reference:     in.Reference,
		AmountCents:   in.AmountCents,
		Currency:      in.Currency,
	}, nil
}

func stranded(id int64, reference string) *dompurchase.Purchase {
	return &dompurchase.Purchase{
		ID:                id,
		Email:             "buyer@example.com",
		FullName:          "Ana Gomez",
		ContactNumber:     "3001234567",
		Status:            dompurchase.StatusPending,
		AmountCents:       10000,
		Currency:          "COP",
		ExternalReference: reference,
	}
}

func TestSweepOnce_RetriesWithExistingReference(t *testing.T) {
	repo := newMockSweeperRepository()
	repo.pending = []*dompurchase.Purchase{stranded(7, "REF-1-aaaaaaaaa")}
	gateway := &mockSweeperGateway{}
	sweeper := NewSweeper(repo, gateway, time.Minute, 5*time.Minute)

	sweeper.SweepOnce(context.Background())

	require.Len(t, gateway.calls, 1)
	require.Equal(t, "REF-1-aaaaaaaaa", gateway.calls[0].Reference)
	require.Equal(t, int64(10000), gateway.calls[0].AmountCents)
	require.Equal(t, "link-REF-1-aaaaaaaaa", repo.transactionIDs[7])
}

func TestSweepOnce_UsesMinAgeCutoff(t *testing.T) {
	repo := newMockSweeperRepository()
	sweeper := NewSweeper(repo, &mockSweeperGateway{}, time.Minute, 5*time.Minute)

	before := time.Now()
	sweeper.SweepOnce(context.Background())

	require.WithinDuration(t, before.Add(-5*time.Minute), repo.lastCutoff, time.Second)
}

func TestSweepOnce_GatewayFailureLeavesPurchaseUntouched(t *testing.T) {
	repo := newMockSweeperRepository()
	repo.pending = []*dompurchase.Purchase{
		stranded(7, "REF-1-aaaaaaaaa"),
		stranded(8, "REF-2-bbbbbbbbb"),
	}
	gateway := &mockSweeperGateway{failFor: map[string]bool{"REF-1-aaaaaaaaa": true}}
	sweeper := NewSweeper(repo, gateway, time.Minute, 5*time.Minute)

	sweeper.SweepOnce(context.Background())

	// The failed purchase keeps its empty transaction id and is picked up
	// again on the next sweep; the other one still goes through.
	require.NotContains(t, repo.transactionIDs, int64(7))
	require.Equal(t, "link-REF-2-bbbbbbbbb", repo.transactionIDs[8])
}

func TestSweepOnce_ListFailureDoesNothing(t *testing.T) {
	repo := newMockSweeperRepository()
	repo.listErr = errors.New("db down")
	gateway := &mockSweeperGateway{}
	sweeper := NewSweeper(repo, gateway, time.Minute, 5*time.Minute)

	sweeper.SweepOnce(context.Background())

	require.Empty(t, gateway.calls)
}
