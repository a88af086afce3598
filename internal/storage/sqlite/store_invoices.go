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

const invoiceColumns = `id, customer_id, booking_id, product_variant_id, status, amount_cents, due_date, paid_at, created_at, updated_at`

// PutInvoice implements storage.InvoiceViewStore.
func (s *Store) PutInvoice(ctx context.Context, invoice view.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(invoice.ID) == "" {
		return fmt.Errorf("invoice id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    customer_id = excluded.customer_id,
    booking_id = excluded.booking_id,
    product_variant_id = excluded.product_variant_id,
    status = excluded.status,
    amount_cents = excluded.amount_cents,
    due_date = excluded.due_date,
    paid_at = excluded.paid_at,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`,
		invoice.ID, invoice.CustomerID, invoice.BookingID, invoice.ProductVariantID,
		string(invoice.Status), invoice.AmountCents, toMillis(invoice.DueDate),
		toNullMillis(invoice.PaidAt), toMillis(invoice.CreatedAt), toMillis(invoice.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put invoice: %w", err)
	}
	return nil
}

// GetInvoice implements storage.InvoiceViewStore.
func (s *Store) GetInvoice(ctx context.Context, id string) (view.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return view.Invoice{}, err
	}
	if s == nil || s.sqlDB == nil {
		return view.Invoice{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, strings.TrimSpace(id))
	invoice, err := scanInvoice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return view.Invoice{}, fmt.Errorf("invoice %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return view.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoicesByStatus implements storage.InvoiceViewStore.
func (s *Store) ListInvoicesByStatus(ctx context.Context, status view.InvoiceStatus) ([]view.Invoice, error) {
	return s.listInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE status = ? ORDER BY id ASC`, string(status))
}

// ListInvoicesByCustomer implements storage.InvoiceViewStore.
func (s *Store) ListInvoicesByCustomer(ctx context.Context, customerID string) ([]view.Invoice, error) {
	return s.listInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = ? ORDER BY id ASC`, strings.TrimSpace(customerID))
}

func (s *Store) listInvoices(ctx context.Context, query string, arg any) ([]view.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []view.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(scan func(...any) error) (view.Invoice, error) {
	var (
		invoice   view.Invoice
		status    string
		dueDate   int64
		paidAt    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := scan(&invoice.ID, &invoice.CustomerID, &invoice.BookingID, &invoice.ProductVariantID,
		&status, &invoice.AmountCents, &dueDate, &paidAt, &createdAt, &updatedAt); err != nil {
		return view.Invoice{}, err
	}
	invoice.Status = view.InvoiceStatus(status)
	invoice.DueDate = fromMillis(dueDate)
	invoice.PaidAt = fromNullMillis(paidAt)
	invoice.CreatedAt = fromMillis(createdAt)
	invoice.UpdatedAt = fromMillis(updatedAt)
	return invoice, nil
}
