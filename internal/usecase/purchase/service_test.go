package purchase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/payment"
)

type mockProductRepository struct {
	products map[int64]*domproduct.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: map[int64]*domproduct.Product{
			1: {ID: 1, Name: "Phone Case", Price: 50.00, Status: domproduct.StatusAvailable, Colors: []string{"Negro", "Azul"}},
			2: {ID: 2, Name: "Charger", Price: 19.90, Status: domproduct.StatusAvailable, Colors: []string{}},
			3: {ID: 3, Name: "Discontinued Stand", Price: 12.00, Status: domproduct.StatusUnavailable, Colors: []string{}},
		},
	}
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	if p, ok := m.products[id]; ok {
		cloned := *p
		return &cloned, nil
	}
	return nil, domproduct.ErrProductNotFound
}

type mockPurchaseRepository struct {
	created        *dompurchase.Purchase
	createErr      error
	transactionIDs map[int64]string
	setErr         error
}

func newMockPurchaseRepository() *mockPurchaseRepository {
	return &mockPurchaseRepository{transactionIDs: make(map[int64]string)}
}

func (m *mockPurchaseRepository) Create(ctx context.Context, p *dompurchase.Purchase) (*dompurchase.Purchase, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	cloned := *p
	cloned.ID = 42
	m.created = &cloned
	return &cloned, nil
}

func (m *mockPurchaseRepository) SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.transactionIDs[id] = transactionID
	return nil
}

type mockGateway struct {
	calls     int
	createErr error
	lastInput payment.CreatePaymentInput
}

func (m *mockGateway) CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.CreatePaymentResult, error) {
	m.calls++
	m.lastInput = in
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &payment.CreatePaymentResult{
		TransactionID: "link-123",
		PaymentURL:    "https://checkout.wompi.co/l/link-123",
		Reference:     in.Reference,
		AmountCents:   in.AmountCents,
		Currency:      in.Currency,
	}, nil
}

type mockPublisher struct {
	events []string
}

func (m *mockPublisher) Publish(ctx context.Context, eventType, correlationID string, payload any) {
	m.events = append(m.events, eventType)
}

func validInput() CreatePurchaseInput {
	return CreatePurchaseInput{
		Email:                "buyer@example.com",
		FullName:             "Ana Gomez",
		IdentificationNumber: "1002003004",
		ContactNumber:        "3001234567",
		Items: []CartItem{
			{ProductID: 1, Quantity: 2},
		},
	}
}

func newTestService() (*Service, *mockProductRepository, *mockPurchaseRepository, *mockGateway, *mockPublisher) {
	products := newMockProductRepository()
	purchases := newMockPurchaseRepository()
	gateway := &mockGateway{}
	events := &mockPublisher{}
	return NewService(products, purchases, gateway, events, "COP"), products, purchases, gateway, events
}

func TestCreatePurchase_Succeeds(t *testing.T) {
	svc, _, purchases, gateway, events := newTestService()

	result, err := svc.CreatePurchase(context.Background(), validInput())

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(42), result.PurchaseID)
	require.Equal(t, "link-123", result.TransactionID)
	require.Equal(t, "https://checkout.wompi.co/l/link-123", result.PaymentURL)
	require.Equal(t, 100.00, result.Total)
	require.Equal(t, int64(10000), result.AmountCents)
	require.Equal(t, "COP", result.Currency)

	require.Len(t, result.Items, 1)
	require.Equal(t, "Phone Case", result.Items[0].ProductName)
	require.Equal(t, 50.00, result.Items[0].UnitPrice)
	require.Equal(t, 100.00, result.Items[0].TotalPrice)

	require.NotNil(t, purchases.created)
	require.Equal(t, dompurchase.StatusPending, purchases.created.Status)
	require.Equal(t, dompurchase.OrderStatusPending, purchases.created.OrderStatus)
	require.Equal(t, int64(10000), purchases.created.AmountCents)
	require.Len(t, purchases.created.Details, 1)
	require.Equal(t, "link-123", purchases.transactionIDs[42])

	require.Equal(t, 1, gateway.calls)
	require.Equal(t, []string{dompurchase.EventPurchaseCreated}, events.events)
}

func TestCreatePurchase_TotalsAcrossMultipleItems(t *testing.T) {
	svc, _, purchases, _, _ := newTestService()
	in := validInput()
	in.Items = []CartItem{
		{ProductID: 1, Quantity: 2, SelectedColor: "Negro"},
		{ProductID: 2, Quantity: 3},
	}

	result, err := svc.CreatePurchase(context.Background(), in)

	require.NoError(t, err)
	require.InDelta(t, 159.70, result.Total, 0.0001)
	require.Equal(t, int64(15970), result.AmountCents)
	require.Len(t, purchases.created.Details, 2)
	require.Equal(t, "Negro", purchases.created.Details[0].SelectedColor)
	require.InDelta(t, 59.70, purchases.created.Details[1].TotalPrice, 0.0001)
}

func TestCreatePurchase_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreatePurchaseInput)
	}{
		{
			name:   "empty cart",
			mutate: func(in *CreatePurchaseInput) { in.Items = nil },
		},
		{
			name:   "malformed email",
			mutate: func(in *CreatePurchaseInput) { in.Email = "not-an-email" },
		},
		{
			name:   "email without tld",
			mutate: func(in *CreatePurchaseInput) { in.Email = "buyer@host" },
		},
		{
			name:   "name too short",
			mutate: func(in *CreatePurchaseInput) { in.FullName = " A " },
		},
		{
			name:   "identification too short",
			mutate: func(in *CreatePurchaseInput) { in.IdentificationNumber = "12345" },
		},
		{
			name:   "contact number too short",
			mutate: func(in *CreatePurchaseInput) { in.ContactNumber = "123456789" },
		},
		{
			name:   "zero quantity",
			mutate: func(in *CreatePurchaseInput) { in.Items[0].Quantity = 0 },
		},
		{
			name:   "negative quantity",
			mutate: func(in *CreatePurchaseInput) { in.Items[0].Quantity = -1 },
		},
		{
			name:   "unknown product",
			mutate: func(in *CreatePurchaseInput) { in.Items[0].ProductID = 999 },
		},
		{
			name:   "color not offered",
			mutate: func(in *CreatePurchaseInput) { in.Items[0].SelectedColor = "Verde" },
		},
		{
			name: "color on product without colors",
			mutate: func(in *CreatePurchaseInput) {
				in.Items = []CartItem{{ProductID: 2, Quantity: 1, SelectedColor: "Negro"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, purchases, gateway, events := newTestService()
			in := validInput()
			tt.mutate(&in)

			result, err := svc.CreatePurchase(context.Background(), in)

			require.ErrorIs(t, err, dompurchase.ErrValidation)
			require.Nil(t, result)
			require.Nil(t, purchases.created, "no purchase may be written on validation failure")
			require.Zero(t, gateway.calls, "gateway must not be called on validation failure")
			require.Empty(t, events.events, "no event may be published on validation failure")
		})
	}
}

func TestCreatePurchase_UnavailableProductRejected(t *testing.T) {
	svc, _, purchases, gateway, events := newTestService()
	in := validInput()
	in.Items[0].ProductID = 3

	result, err := svc.CreatePurchase(context.Background(), in)

	require.ErrorIs(t, err, domproduct.ErrProductUnavailable)
	require.Nil(t, result)
	require.Nil(t, purchases.created)
	require.Zero(t, gateway.calls)
	require.Empty(t, events.events)
}

func TestCreatePurchase_ValidColorAccepted(t *testing.T) {
	svc, _, purchases, _, _ := newTestService()
	in := validInput()
	in.Items[0].SelectedColor = "Azul"

	_, err := svc.CreatePurchase(context.Background(), in)

	require.NoError(t, err)
	require.Equal(t, "Azul", purchases.created.Details[0].SelectedColor)
}

func TestCreatePurchase_GatewayFailureLeavesPendingPurchase(t *testing.T) {
	svc, _, purchases, gateway, events := newTestService()
	gateway.createErr = errors.New("gateway unavailable")

	result, err := svc.CreatePurchase(context.Background(), validInput())

	require.Error(t, err)
	require.Nil(t, result)
	// The purchase row exists but never received a transaction id; the
	// sweeper is responsible for it from here.
	require.NotNil(t, purchases.created)
	require.Equal(t, dompurchase.StatusPending, purchases.created.Status)
	require.Empty(t, purchases.transactionIDs)
	require.Equal(t, []string{dompurchase.EventPurchaseCreated}, events.events)
}

func TestCreatePurchase_RepositoryFailurePropagates(t *testing.T) {
	svc, _, purchases, gateway, _ := newTestService()
	purchases.createErr = errors.New("connection reset")

	result, err := svc.CreatePurchase(context.Background(), validInput())

	require.Error(t, err)
	require.NotErrorIs(t, err, dompurchase.ErrValidation)
	require.Nil(t, result)
	require.Zero(t, gateway.calls)
}

func TestCreatePurchase_PricesComeFromCatalog(t *testing.T) {
	svc, _, _, gateway, _ := newTestService()

	_, err := svc.CreatePurchase(context.Background(), validInput())

	require.NoError(t, err)
	require.Equal(t, int64(10000), gateway.lastInput.AmountCents)
	require.Equal(t, "buyer@example.com", gateway.lastInput.BuyerEmail)
	require.Len(t, gateway.lastInput.Items, 1)
	require.Equal(t, 50.00, gateway.lastInput.Items[0].UnitPrice)
}

var referencePattern = regexp.MustCompile(`^REF-\d+-[0-9a-z]{9}$`)

func TestNewExternalReference_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewExternalReference()
		require.Regexp(t, referencePattern, ref)
		seen[ref] = true
	}
	require.Greater(t, len(seen), 1, "references should not all collide")
}
