package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studiofit/membercore/internal/storage"
	"github.com/studiofit/membercore/internal/view"
)

// PutProduct implements storage.ProductViewStore. Variants are stored as a
// JSON blob; they are only ever read back as a whole.
func (s *Store) PutProduct(ctx context.Context, product view.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}

	variantsJSON, err := json.Marshal(product.Variants)
	if err != nil {
		return fmt.Errorf("marshal product variants: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO products (id, name, description, archived, variants_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    archived = excluded.archived,
    variants_json = excluded.variants_json,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`,
		product.ID, product.Name, product.Description, boolToInt(product.Archived),
		variantsJSON, toMillis(product.CreatedAt), toMillis(product.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetProduct implements storage.ProductViewStore.
func (s *Store) GetProduct(ctx context.Context, id string) (view.Product, error) {
	if err := ctx.Err(); err != nil {
		return view.Product{}, err
	}
	if s == nil || s.sqlDB == nil {
		return view.Product{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, description, archived, variants_json, created_at, updated_at FROM products WHERE id = ?`,
		strings.TrimSpace(id),
	)
	product, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return view.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return view.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts implements storage.ProductViewStore.
func (s *Store) ListProducts(ctx context.Context, includeArchived bool) ([]view.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT id, name, description, archived, variants_json, created_at, updated_at FROM products ORDER BY id ASC`
	if !includeArchived {
		query = `SELECT id, name, description, archived, variants_json, created_at, updated_at FROM products WHERE archived = 0 ORDER BY id ASC`
	}

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []view.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

func scanProduct(scan func(...any) error) (view.Product, error) {
	var (
		product      view.Product
		archived     int
		variantsJSON []byte
		createdAt    int64
		updatedAt    int64
	)
	if err := scan(&product.ID, &product.Name, &product.Description, &archived, &variantsJSON, &createdAt, &updatedAt); err != nil {
		return view.Product{}, err
	}
	if len(variantsJSON) > 0 {
		if err := json.Unmarshal(variantsJSON, &product.Variants); err != nil {
			return view.Product{}, fmt.Errorf("unmarshal product variants: %w", err)
		}
	}
	product.Archived = archived != 0
	product.CreatedAt = fromMillis(createdAt)
	product.UpdatedAt = fromMillis(updatedAt)
	return product, nil
}
