package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
)

type PurchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `id, email, full_name, identification_number, contact_number,
        shipping_address, status, order_status, amount_cents, currency,
        payment_provider, external_reference, wompi_transaction_id, created_at, updated_at`

func (r *PurchaseRepository) Create(ctx context.Context, p *dompurchase.Purchase) (_ *dompurchase.Purchase, retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO purchases
            (email, full_name, identification_number, contact_number, shipping_address,
             status, order_status, amount_cents, currency, payment_provider, external_reference)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, p.Email, p.FullName, p.IdentificationNumber, p.ContactNumber, nullString(p.ShippingAddress),
		p.Status, p.OrderStatus, p.AmountCents, p.Currency, p.PaymentProvider, p.ExternalReference)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	purchaseID, _ := res.LastInsertId()

	for i := range p.Details {
		d := &p.Details[i]
		d.PurchaseID = purchaseID
		res, err := tx.ExecContext(ctx, `
            INSERT INTO order_details (purchase_id, product_id, quantity, unit_price, total_price, selected_color)
            VALUES (?, ?, ?, ?, ?, ?)
        `, purchaseID, d.ProductID, d.Quantity, d.UnitPrice, d.TotalPrice, nullString(d.SelectedColor))
		if err != nil {
			retErr = err
			return nil, retErr
		}
		d.ID, _ = res.LastInsertId()
	}

	if err = tx.Commit(); err != nil {
		retErr = err
		return nil, retErr
	}
	return r.GetByID(ctx, purchaseID)
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*dompurchase.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases WHERE id = ?
    `, id)
	return r.scanWithDetails(ctx, row)
}

func (r *PurchaseRepository) GetByTransactionID(ctx context.Context, transactionID string) (*dompurchase.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases WHERE wompi_transaction_id = ?
    `, transactionID)
	return r.scanWithDetails(ctx, row)
}

func (r *PurchaseRepository) GetByReference(ctx context.Context, reference string) (*dompurchase.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases WHERE external_reference = ?
    `, reference)
	return r.scanWithDetails(ctx, row)
}

func (r *PurchaseRepository) GetByEmail(ctx context.Context, email string) ([]*dompurchase.Purchase, error) {
	return r.queryPurchases(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases WHERE email = ?
        ORDER BY updated_at DESC
    `, email)
}

func (r *PurchaseRepository) List(ctx context.Context) ([]*dompurchase.Purchase, error) {
	return r.queryPurchases(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases
        ORDER BY created_at DESC
    `)
}

func (r *PurchaseRepository) ListPendingWithoutTransaction(ctx context.Context, before time.Time) ([]*dompurchase.Purchase, error) {
	return r.queryPurchases(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases
        WHERE status = ? AND wompi_transaction_id IS NULL AND created_at < ?
        ORDER BY created_at ASC
    `, dompurchase.StatusPending, before)
}

func (r *PurchaseRepository) UpdateStatus(ctx context.Context, id int64, status dompurchase.Status) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE purchases SET status = ?, updated_at = NOW() WHERE id = ?
    `, status, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dompurchase.ErrPurchaseNotFound
	}
	return nil
}

func (r *PurchaseRepository) UpdateStatusByReference(ctx context.Context, reference string, status dompurchase.Status) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE purchases SET status = ?, updated_at = NOW() WHERE external_reference = ?
    `, status, reference)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

func (r *PurchaseRepository) SetGatewayTransaction(ctx context.Context, id int64, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE purchases SET wompi_transaction_id = ?, updated_at = NOW() WHERE id = ?
    `, transactionID, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dompurchase.ErrPurchaseNotFound
	}
	return nil
}

func (r *PurchaseRepository) UpdateBuyerInfo(ctx context.Context, id int64, patch dompurchase.BuyerPatch) (*dompurchase.Purchase, error) {
	query := `UPDATE purchases SET updated_at = NOW()`
	var args []any
	if patch.Email != nil {
		query += `, email = ?`
		args = append(args, *patch.Email)
	}
	if patch.FullName != nil {
		query += `, full_name = ?`
		args = append(args, *patch.FullName)
	}
	if patch.ContactNumber != nil {
		query += `, contact_number = ?`
		args = append(args, *patch.ContactNumber)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, dompurchase.ErrPurchaseNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PurchaseRepository) UpdateOrderStatus(ctx context.Context, id int64, status dompurchase.OrderStatus) (*dompurchase.Purchase, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE purchases SET order_status = ?, updated_at = NOW() WHERE id = ?
    `, status, id)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, dompurchase.ErrPurchaseNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PurchaseRepository) queryPurchases(ctx context.Context, query string, args ...any) ([]*dompurchase.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []*dompurchase.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range purchases {
		details, err := r.listDetails(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Details = details
	}
	return purchases, nil
}

func (r *PurchaseRepository) scanWithDetails(ctx context.Context, row rowScanner) (*dompurchase.Purchase, error) {
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dompurchase.ErrPurchaseNotFound
		}
		return nil, err
	}
	details, err := r.listDetails(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Details = details
	return p, nil
}

func (r *PurchaseRepository) listDetails(ctx context.Context, purchaseID int64) ([]domdetail.OrderDetail, error) {
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

func scanPurchase(row rowScanner) (*dompurchase.Purchase, error) {
	var p dompurchase.Purchase
	var shipping, transactionID sql.NullString
	if err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.IdentificationNumber, &p.ContactNumber,
		&shipping, &p.Status, &p.OrderStatus, &p.AmountCents, &p.Currency,
		&p.PaymentProvider, &p.ExternalReference, &transactionID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ShippingAddress = shipping.String
	p.WompiTransactionID = transactionID.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
