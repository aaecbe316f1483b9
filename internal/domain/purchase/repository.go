package purchase

import (
	"context"
	"time"
)

type Repository interface {
	// Create persists the purchase and all of its details in one
	// transaction; either everything lands or nothing does.
	Create(ctx context.Context, p *Purchase) (*Purchase, error)
	GetByID(ctx context.Context, id int64) (*Purchase, error)
	// GetByEmail returns the buyer's purchases newest-updated first.
	GetByEmail(ctx context.Context, email string) ([]*Purchase, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Purchase, error)
	GetByReference(ctx context.Context, reference string) (*Purchase, error)
	// List returns every purchase newest-created first.
	List(ctx context.Context) ([]*Purchase, error)
	// ListPendingWithoutTransaction returns PENDING purchases created
	// before the cutoff that never received a gateway transaction id.
	ListPendingWithoutTransaction(ctx context.Context, before time.Time) ([]*Purchase, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// UpdateStatusByReference applies the status to every row matching the
	// external reference and returns how many were touched.
	UpdateStatusByReference(ctx context.Context, reference string, status Status) (int64, error)
	SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error
	UpdateBuyerInfo(ctx context.Context, id int64, patch BuyerPatch) (*Purchase, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (*Purchase, error)
}
