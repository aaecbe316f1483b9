package orderdetail

import "context"

// Repository is the order-detail data source. Update and Delete report an
// absent row through ErrOrderDetailNotFound instead of failing the caller
// with an infrastructure error.
type Repository interface {
	Create(ctx context.Context, d *OrderDetail) (*OrderDetail, error)
	GetByID(ctx context.Context, id int64) (*OrderDetail, error)
	GetByPurchaseID(ctx context.Context, purchaseID int64) ([]OrderDetail, error)
	Update(ctx context.Context, d *OrderDetail) (*OrderDetail, error)
	Delete(ctx context.Context, id int64) error
}
