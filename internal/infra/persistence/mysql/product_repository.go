package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, status, colors, created_at, updated_at`

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+productColumns+`
        FROM products WHERE id = ?
    `, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domproduct.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domproduct.Product, error) {
	if len(ids) == 0 {
		return []*domproduct.Product{}, nil
	}

	query := `
        SELECT ` + productColumns + `
        FROM products
        WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)
    `
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domproduct.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domproduct.Product, error) {
	var p domproduct.Product
	var colors sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Status, &colors, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Colors = parseColors(colors.String)
	return &p, nil
}

// parseColors normalizes the serialized colors column to a plain list.
// Anything that is not a JSON string array comes back empty; the store has
// rows written before the column was validated.
func parseColors(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var colors []string
	if err := json.Unmarshal([]byte(raw), &colors); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}
