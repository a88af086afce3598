package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/invoice"
	"github.com/studiofit/membercore/internal/view"
)

const invoiceDateLayout = "2006-01-02"

func (a Applier) applyInvoiceCreated(ctx context.Context, evt event.Event) error {
	if a.Invoice == nil {
		return fmt.Errorf("invoice view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload invoice.CreatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	dueDate, err := time.Parse(invoiceDateLayout, payload.DueDate)
	if err != nil {
		return fmt.Errorf("parse due date %q: %w", payload.DueDate, err)
	}

	return a.Invoice.PutInvoice(ctx, view.Invoice{
		ID:               evt.AggregateID,
		CustomerID:       payload.CustomerID,
		BookingID:        payload.BookingID,
		ProductVariantID: payload.ProductVariantID,
		Status:           view.InvoiceStatusOpen,
		AmountCents:      payload.AmountCents,
		DueDate:          dueDate.UTC(),
		CreatedAt:        evt.Timestamp,
		UpdatedAt:        evt.Timestamp,
	})
}

func (a Applier) applyInvoicePaid(ctx context.Context, evt event.Event) error {
	if a.Invoice == nil {
		return fmt.Errorf("invoice view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload invoice.PaidPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Invoice.GetInvoice(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	paidAt := evt.Timestamp
	if payload.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.PaidAt)
		if err != nil {
			return fmt.Errorf("parse paid at %q: %w", payload.PaidAt, err)
		}
		paidAt = parsed.UTC()
	}

	current.Status = view.InvoiceStatusPaid
	current.PaidAt = &paidAt
	current.UpdatedAt = evt.Timestamp
	return a.Invoice.PutInvoice(ctx, current)
}

func (a Applier) applyInvoiceStatus(ctx context.Context, evt event.Event, status view.InvoiceStatus) error {
	if a.Invoice == nil {
		return fmt.Errorf("invoice view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}

	current, err := a.Invoice.GetInvoice(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	current.Status = status
	current.UpdatedAt = evt.Timestamp
	return a.Invoice.PutInvoice(ctx, current)
}
