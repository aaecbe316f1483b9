package mysql

import (
	"context"
	"database/sql"
	"errors"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
)

type OrderDetailRepository struct {
	db *sql.DB
}

func NewOrderDetailRepository(db *sql.DB) *OrderDetailRepository {
	return &OrderDetailRepository{db: db}
}

func (r *OrderDetailRepository) Create(ctx context.Context, d *domdetail.OrderDetail) (*domdetail.OrderDetail, error) {
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO order_details (purchase_id, product_id, quantity, unit_price, total_price, selected_color)
        VALUES (?, ?, ?, ?, ?, ?)
    `, d.PurchaseID, d.ProductID, d.Quantity, d.UnitPrice, d.TotalPrice, nullString(d.SelectedColor))
	if err != nil {
		return nil, err
	}
	d.ID, _ = res.LastInsertId()
	return r.GetByID(ctx, d.ID)
}

func (r *OrderDetailRepository) GetByID(ctx context.Context, id int64) (*domdetail.OrderDetail, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, purchase_id, product_id, quantity, unit_price, total_price, selected_color, created_at
        FROM order_details WHERE id = ?
    `, id)

	d, err := scanOrderDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domdetail.ErrOrderDetailNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *OrderDetailRepository) GetByPurchaseID(ctx context.Context, purchaseID int64) ([]domdetail.OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, purchase_id, product_id, quantity, unit_price, total_price, selected_color, created_at
        FROM order_details WHERE purchase_id = ?
    `, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domdetail.OrderDetail
	for rows.Next() {
		d, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

func (r *OrderDetailRepository) Update(ctx context.Context, d *domdetail.OrderDetail) (*domdetail.OrderDetail, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE order_details
        SET quantity = ?, unit_price = ?, total_price = ?, selected_color = ?
        WHERE id = ?
    `, d.Quantity, d.UnitPrice, d.TotalPrice, nullString(d.SelectedColor), d.ID)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		// RowsAffected is zero both for a missing row and for a no-op
		// update; confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, d.ID)
}

func (r *OrderDetailRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_details WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domdetail.ErrOrderDetailNotFound
	}
	return nil
}

func scanOrderDetail(row rowScanner) (*domdetail.OrderDetail, error) {
	var d domdetail.OrderDetail
	var color sql.NullString
	if err := row.Scan(&d.ID, &d.PurchaseID, &d.ProductID, &d.Quantity, &d.UnitPrice, &d.TotalPrice, &color, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.SelectedColor = color.String
	return &d, nil
}
