package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/payment"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domproduct.Product, error)
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *dompurchase.Purchase) (*dompurchase.Purchase, error)
	SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.CreatePaymentResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any)
}

type Service struct {
	products  ProductRepository
	purchases PurchaseRepository
	gateway   PaymentGateway
	events    EventPublisher
	currency  string
}

func NewService(products ProductRepository, purchases PurchaseRepository, gateway PaymentGateway, events EventPublisher, currency string) *Service {
	return &Service{
		products:  products,
		purchases: purchases,
		gateway:   gateway,
		events:    events,
		currency:  currency,
	}
}

type CartItem struct {
	ProductID     int64
	Quantity      int64
	SelectedColor string
}

type CreatePurchaseInput struct {
	Email                string
	FullName             string
	IdentificationNumber string
	ContactNumber        string
	ShippingAddress      string
	Items                []CartItem
}

type PricedItem struct {
	ProductID     int64
	ProductName   string
	Quantity      int64
	UnitPrice     float64
	TotalPrice    float64
	SelectedColor string
}

type CreatePurchaseResult struct {
	PurchaseID    int64
	TransactionID string
	PaymentURL    string
	Reference     string
	AmountCents   int64
	Currency      string
	Total         float64
	Items         []PricedItem
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CreatePurchase runs the full checkout workflow: validate the cart against
// the catalog, persist the purchase with its line items in one transaction,
// open a payment session at the gateway and attach the returned transaction
// id. A gateway failure after the write leaves a PENDING purchase without a
// transaction id; the reconcile sweeper picks those up.
func (s *Service) CreatePurchase(ctx context.Context, in CreatePurchaseInput) (*CreatePurchaseResult, error) {
	if err := s.validateBuyer(in); err != nil {
		return nil, err
	}
	priced, err := s.priceCart(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	var total float64
	details := make([]domdetail.OrderDetail, 0, len(priced))
	for _, it := range priced {
		total += it.TotalPrice
		details = append(details, domdetail.OrderDetail{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TotalPrice:    it.TotalPrice,
			SelectedColor: it.SelectedColor,
		})
	}
	amountCents := int64(math.Round(total * 100))
	reference := NewExternalReference()

	created, err := s.purchases.Create(ctx, &dompurchase.Purchase{
		Email:                strings.TrimSpace(in.Email),
		FullName:             strings.TrimSpace(in.FullName),
		IdentificationNumber: strings.TrimSpace(in.IdentificationNumber),
		ContactNumber:        strings.TrimSpace(in.ContactNumber),
		ShippingAddress:      strings.TrimSpace(in.ShippingAddress),
		Status:               dompurchase.StatusPending,
		OrderStatus:          dompurchase.OrderStatusPending,
		AmountCents:          amountCents,
		Currency:             s.currency,
		PaymentProvider:      dompurchase.ProviderWompi,
		ExternalReference:    reference,
		Details:              details,
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, dompurchase.EventPurchaseCreated, reference, dompurchase.PurchaseCreatedPayload{
		PurchaseID:        created.ID,
		ExternalReference: reference,
		Email:             created.Email,
		AmountCents:       amountCents,
		Currency:          s.currency,
		Items:             toItemSnapshots(priced),
	})

	session, err := s.gateway.CreatePayment(ctx, payment.CreatePaymentInput{
		Reference:     reference,
		AmountCents:   amountCents,
		Currency:      s.currency,
		BuyerEmail:    created.Email,
		BuyerFullName: created.FullName,
		BuyerPhone:    created.ContactNumber,
		Items:         toPaymentItems(priced),
	})
	if err != nil {
		slog.ErrorContext(ctx, "payment session creation failed, purchase left pending",
			"purchase_id", created.ID, "reference", reference, "error", err)
		return nil, err
	}

	if err := s.purchases.SetGatewayTransaction(ctx, created.ID, session.TransactionID); err != nil {
		slog.ErrorContext(ctx, "could not attach gateway transaction to purchase",
			"purchase_id", created.ID, "transaction_id", session.TransactionID, "error", err)
		return nil, err
	}

	return &CreatePurchaseResult{
		PurchaseID:    created.ID,
		TransactionID: session.TransactionID,
		PaymentURL:    session.PaymentURL,
		Reference:     reference,
		AmountCents:   amountCents,
		Currency:      s.currency,
		Total:         total,
		Items:         priced,
	}, nil
}

func (s *Service) validateBuyer(in CreatePurchaseInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: cart must contain at least one item", dompurchase.ErrValidation)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return fmt.Errorf("%w: email is invalid", dompurchase.ErrValidation)
	}
	if len(strings.TrimSpace(in.FullName)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", dompurchase.ErrValidation)
	}
	if len(strings.TrimSpace(in.IdentificationNumber)) < 6 {
		return fmt.Errorf("%w: identification number must be at least 6 characters", dompurchase.ErrValidation)
	}
	if len(strings.TrimSpace(in.ContactNumber)) < 10 {
		return fmt.Errorf("%w: contact number must be at least 10 characters", dompurchase.ErrValidation)
	}
	return nil
}

// priceCart validates every item against the catalog and snapshots current
// prices. Prices never come from the caller.
func (s *Service) priceCart(ctx context.Context, items []CartItem) ([]PricedItem, error) {
	priced := make([]PricedItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be greater than zero for product %d", dompurchase.ErrValidation, item.ProductID)
		}
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domproduct.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %d does not exist", dompurchase.ErrValidation, item.ProductID)
			}
			return nil, err
		}
		if !p.IsAvailable() {
			return nil, fmt.Errorf("%w: %q", domproduct.ErrProductUnavailable, p.Name)
		}
		if item.SelectedColor != "" && !p.HasColor(item.SelectedColor) {
			return nil, fmt.Errorf("%w: color %q is not offered for product %q", dompurchase.ErrValidation, item.SelectedColor, p.Name)
		}
		priced = append(priced, PricedItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      item.Quantity,
			UnitPrice:     p.Price,
			TotalPrice:    p.Price * float64(item.Quantity),
			SelectedColor: item.SelectedColor,
		})
	}
	return priced, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewExternalReference builds the correlation token handed to the gateway:
// REF-<epoch_millis>-<9 base36 chars>. Uniqueness is probabilistic; the
// schema's unique index turns the theoretical collision into an insert error
// instead of silent cross-linking.
func NewExternalReference() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("REF-%d-%s", time.Now().UnixMilli(), suffix)
}

func toItemSnapshots(items []PricedItem) []dompurchase.ItemSnapshot {
	out := make([]dompurchase.ItemSnapshot, 0, len(items))
	for _, it := range items {
		out = append(out, dompurchase.ItemSnapshot{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return out
}

func toPaymentItems(items []PricedItem) []payment.PaymentItem {
	out := make([]payment.PaymentItem, 0, len(items))
	for _, it := range items {
		out = append(out, payment.PaymentItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}
