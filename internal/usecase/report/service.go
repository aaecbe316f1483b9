package report

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/email"
)

type PurchaseRepository interface {
	GetByID(ctx context.Context, id int64) (*dompurchase.Purchase, error)
	GetByEmail(ctx context.Context, email string) ([]*dompurchase.Purchase, error)
	List(ctx context.Context) ([]*dompurchase.Purchase, error)
	UpdateBuyerInfo(ctx context.Context, id int64, patch dompurchase.BuyerPatch) (*dompurchase.Purchase, error)
	UpdateOrderStatus(ctx context.Context, id int64, status dompurchase.OrderStatus) (*dompurchase.Purchase, error)
}

type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*domproduct.Product, error)
}

type OrderDetailRepository interface {
	GetByID(ctx context.Context, id int64) (*domdetail.OrderDetail, error)
	GetByPurchaseID(ctx context.Context, purchaseID int64) ([]domdetail.OrderDetail, error)
	Update(ctx context.Context, d *domdetail.OrderDetail) (*domdetail.OrderDetail, error)
	Delete(ctx context.Context, id int64) error
}

type EmailSender interface {
	SendPaymentConfirmation(ctx context.Context, p email.ConfirmationPayload) error
}

type Service struct {
	purchases PurchaseRepository
	products  ProductRepository
	details   OrderDetailRepository
	emails    EmailSender
}

func NewService(purchases PurchaseRepository, products ProductRepository, details OrderDetailRepository, emails EmailSender) *Service {
	return &Service{
		purchases: purchases,
		products:  products,
		details:   details,
		emails:    emails,
	}
}

const UnknownProductName = "Unknown Product"

// PurchaseView is a purchase with line items carrying resolved product
// names; a deleted catalog row shows up as "Unknown Product".
type PurchaseView struct {
	Purchase *dompurchase.Purchase
	Items    []ItemView
}

type ItemView struct {
	DetailID      int64
	ProductID     int64
	ProductName   string
	Quantity      int64
	UnitPrice     float64
	TotalPrice    float64
	SelectedColor string
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (*PurchaseView, error) {
	p, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.toViews(ctx, []*dompurchase.Purchase{p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) GetPurchasesByEmail(ctx context.Context, buyerEmail string) ([]PurchaseView, error) {
	purchases, err := s.purchases.GetByEmail(ctx, strings.TrimSpace(buyerEmail))
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, purchases)
}

type BackupData struct {
	TotalPurchases     int64
	CountsByStatus     map[dompurchase.Status]int64
	RevenueCents       int64
	UniqueProductsSold int64
	Purchases          []PurchaseView
}

// GenerateBackupData builds the full export: aggregate statistics plus every
// purchase newest-created first. Revenue and products-sold only count
// purchases whose payment went through.
func (s *Service) GenerateBackupData(ctx context.Context) (*BackupData, error) {
	purchases, err := s.purchases.List(ctx)
	if err != nil {
		return nil, err
	}

	data := &BackupData{
		TotalPurchases: int64(len(purchases)),
		CountsByStatus: make(map[dompurchase.Status]int64),
	}
	soldProducts := make(map[int64]struct{})
	for _, p := range purchases {
		data.CountsByStatus[p.Status]++
		if p.Status.IsPaid() {
			data.RevenueCents += p.AmountCents
			for _, d := range p.Details {
				soldProducts[d.ProductID] = struct{}{}
			}
		}
	}
	data.UniqueProductsSold = int64(len(soldProducts))

	views, err := s.toViews(ctx, purchases)
	if err != nil {
		return nil, err
	}
	data.Purchases = views
	return data, nil
}

// ResendEmailForPurchase re-triggers the confirmation email for a purchase
// whose payment already went through.
func (s *Service) ResendEmailForPurchase(ctx context.Context, id int64) error {
	p, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Status.IsPaid() {
		return dompurchase.ErrEmailNotAllowed
	}

	views, err := s.toViews(ctx, []*dompurchase.Purchase{p})
	if err != nil {
		return err
	}
	items := make([]email.ConfirmationItem, 0, len(views[0].Items))
	for _, it := range views[0].Items {
		items = append(items, email.ConfirmationItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Total:    it.TotalPrice,
		})
	}
	return s.emails.SendPaymentConfirmation(ctx, email.ConfirmationPayload{
		To:          p.Email,
		FullName:    p.FullName,
		Reference:   p.ExternalReference,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Items:       items,
	})
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UpdatePurchase corrects buyer contact fields after creation. Only email,
// name and contact number are mutable through this path.
func (s *Service) UpdatePurchase(ctx context.Context, id int64, patch dompurchase.BuyerPatch) (*dompurchase.Purchase, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", dompurchase.ErrValidation)
	}
	if patch.Email != nil && !emailPattern.MatchString(strings.TrimSpace(*patch.Email)) {
		return nil, fmt.Errorf("%w: email is invalid", dompurchase.ErrValidation)
	}
	if patch.FullName != nil && len(strings.TrimSpace(*patch.FullName)) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", dompurchase.ErrValidation)
	}
	return s.purchases.UpdateBuyerInfo(ctx, id, patch)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status dompurchase.OrderStatus) (*dompurchase.Purchase, error) {
	if !status.IsValid() {
		return nil, dompurchase.ErrInvalidOrderStatus
	}
	return s.purchases.UpdateOrderStatus(ctx, id, status)
}

func (s *Service) GetOrderDetail(ctx context.Context, id int64) (*domdetail.OrderDetail, error) {
	return s.details.GetByID(ctx, id)
}

type OrderDetailPatch struct {
	Quantity      *int64
	SelectedColor *string
}

// UpdateOrderDetail adjusts a line item. The total is re-snapshotted from
// the stored unit price, never from the current catalog.
func (s *Service) UpdateOrderDetail(ctx context.Context, id int64, patch OrderDetailPatch) (*domdetail.OrderDetail, error) {
	d, err := s.details.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, domdetail.ErrInvalidQuantity
		}
		d.Quantity = *patch.Quantity
		d.TotalPrice = d.UnitPrice * float64(d.Quantity)
	}
	if patch.SelectedColor != nil {
		d.SelectedColor = *patch.SelectedColor
	}
	return s.details.Update(ctx, d)
}

func (s *Service) DeleteOrderDetail(ctx context.Context, id int64) error {
	return s.details.Delete(ctx, id)
}

func (s *Service) toViews(ctx context.Context, purchases []*dompurchase.Purchase) ([]PurchaseView, error) {
	idSet := make(map[int64]struct{})
	for _, p := range purchases {
		for _, d := range p.Details {
			idSet[d.ProductID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names := make(map[int64]string, len(ids))
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		// Name resolution is presentation; a catalog read failure should
		// not hide the buyer's purchase history.
		slog.WarnContext(ctx, "product name resolution failed", "error", err)
	} else {
		for _, prod := range products {
			names[prod.ID] = prod.Name
		}
	}

	views := make([]PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		items := make([]ItemView, 0, len(p.Details))
		for _, d := range p.Details {
			name, ok := names[d.ProductID]
			if !ok {
				name = UnknownProductName
			}
			items = append(items, ItemView{
				DetailID:      d.ID,
				ProductID:     d.ProductID,
				ProductName:   name,
				Quantity:      d.Quantity,
				UnitPrice:     d.UnitPrice,
				TotalPrice:    d.TotalPrice,
				SelectedColor: d.SelectedColor,
			})
		}
		views = append(views, PurchaseView{Purchase: p, Items: items})
	}
	return views, nil
}
