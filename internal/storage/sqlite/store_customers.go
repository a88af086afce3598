package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studiofit/membercore/internal/storage"
	"github.com/studiofit/membercore/internal/view"
)

// PutCustomer implements storage.CustomerViewStore.
func (s *Store) PutCustomer(ctx context.Context, customer view.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(customer.ID) == "" {
		return fmt.Errorf("customer id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, address, archived, registered_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    email = excluded.email,
    address = excluded.address,
    archived = excluded.archived,
    registered_at = excluded.registered_at,
    updated_at = excluded.updated_at`,
		customer.ID, customer.Name, customer.Email, customer.Address,
		boolToInt(customer.Archived), toMillis(customer.RegisteredAt), toMillis(customer.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put customer: %w", err)
	}
	return nil
}

// GetCustomer implements storage.CustomerViewStore.
func (s *Store) GetCustomer(ctx context.Context, id string) (view.Customer, error) {
	if err := ctx.Err(); err != nil {
		return view.Customer{}, err
	}
	if s == nil || s.sqlDB == nil {
		return view.Customer{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, email, address, archived, registered_at, updated_at FROM customers WHERE id = ?`,
		strings.TrimSpace(id),
	)
	customer, err := scanCustomer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return view.Customer{}, fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return view.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// ListCustomers implements storage.CustomerViewStore.
func (s *Store) ListCustomers(ctx context.Context, includeArchived bool) ([]view.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT id, name, email, address, archived, registered_at, updated_at FROM customers ORDER BY id ASC`
	if !includeArchived {
		query = `SELECT id, name, email, address, archived, registered_at, updated_at FROM customers WHERE archived = 0 ORDER BY id ASC`
	}

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []view.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read customers: %w", err)
	}
	return customers, nil
}

func scanCustomer(scan func(...any) error) (view.Customer, error) {
	var (
		customer     view.Customer
		archived     int
		registeredAt int64
		updatedAt    int64
	)
	if err := scan(&customer.ID, &customer.Name, &customer.Email, &customer.Address, &archived, &registeredAt, &updatedAt); err != nil {
		return view.Customer{}, err
	}
	customer.Archived = archived != 0
	customer.RegisteredAt = fromMillis(registeredAt)
	customer.UpdatedAt = fromMillis(updatedAt)
	return customer, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
