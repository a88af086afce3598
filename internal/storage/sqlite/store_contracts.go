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

const contractColumns = `id, customer_id, product_variant_id, booking_id, status, start_date, end_date, paused_from, paused_to, signed_at, updated_at`

// PutContract implements storage.ContractViewStore.
func (s *Store) PutContract(ctx context.Context, contract view.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(contract.ID) == "" {
		return fmt.Errorf("contract id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO contracts (`+contractColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    customer_id = excluded.customer_id,
    product_variant_id = excluded.product_variant_id,
    booking_id = excluded.booking_id,
    status = excluded.status,
    start_date = excluded.start_date,
    end_date = excluded.end_date,
    paused_from = excluded.paused_from,
    paused_to = excluded.paused_to,
    signed_at = excluded.signed_at,
    updated_at = excluded.updated_at`,
		contract.ID, contract.CustomerID, contract.ProductVariantID, contract.BookingID,
		string(contract.Status), toMillis(contract.StartDate), toMillis(contract.EndDate),
		toNullMillis(contract.PausedFrom), toNullMillis(contract.PausedTo),
		toMillis(contract.SignedAt), toMillis(contract.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put contract: %w", err)
	}
	return nil
}

// GetContract implements storage.ContractViewStore.
func (s *Store) GetContract(ctx context.Context, id string) (view.Contract, error) {
	if err := ctx.Err(); err != nil {
		return view.Contract{}, err
	}
	if s == nil || s.sqlDB == nil {
		return view.Contract{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = ?`, strings.TrimSpace(id))
	contract, err := scanContract(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return view.Contract{}, fmt.Errorf("contract %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return view.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return contract, nil
}

// ListContractsByStatus implements storage.ContractViewStore.
func (s *Store) ListContractsByStatus(ctx context.Context, status view.ContractStatus) ([]view.Contract, error) {
	return s.listContracts(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE status = ? ORDER BY id ASC`, string(status))
}

// ListContractsByCustomer implements storage.ContractViewStore.
func (s *Store) ListContractsByCustomer(ctx context.Context, customerID string) ([]view.Contract, error) {
	return s.listContracts(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE customer_id = ? ORDER BY id ASC`, strings.TrimSpace(customerID))
}

func (s *Store) listContracts(ctx context.Context, query string, arg any) ([]view.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []view.Contract
	for rows.Next() {
		contract, err := scanContract(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read contracts: %w", err)
	}
	return contracts, nil
}

func scanContract(scan func(...any) error) (view.Contract, error) {
	var (
		contract   view.Contract
		status     string
		startDate  int64
		endDate    int64
		pausedFrom sql.NullInt64
		pausedTo   sql.NullInt64
		signedAt   int64
		updatedAt  int64
	)
	if err := scan(&contract.ID, &contract.CustomerID, &contract.ProductVariantID, &contract.BookingID,
		&status, &startDate, &endDate, &pausedFrom, &pausedTo, &signedAt, &updatedAt); err != nil {
		return view.Contract{}, err
	}
	contract.Status = view.ContractStatus(status)
	contract.StartDate = fromMillis(startDate)
	contract.EndDate = fromMillis(endDate)
	contract.PausedFrom = fromNullMillis(pausedFrom)
	contract.PausedTo = fromNullMillis(pausedTo)
	contract.SignedAt = fromMillis(signedAt)
	contract.UpdatedAt = fromMillis(updatedAt)
	return contract, nil
}
