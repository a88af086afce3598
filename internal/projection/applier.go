// Package projection maintains the queryable read models: an applier folds
// journal events into view stores, a dispatcher fans appended events out to
// registered handlers, a notifier closes the read-your-writes gap, and an
// outbox worker retries applies that failed in the synchronous path.
package projection

import (
	"context"
	"fmt"

	"github.com/studiofit/membercore/internal/domain/contract"
	"github.com/studiofit/membercore/internal/domain/customer"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/invoice"
	"github.com/studiofit/membercore/internal/domain/product"
	"github.com/studiofit/membercore/internal/storage"
	"github.com/studiofit/membercore/internal/view"
)

// Applier applies event journal entries to projection view stores.
type Applier struct {
	Customer storage.CustomerViewStore
	Product  storage.ProductViewStore
	Contract storage.ContractViewStore
	Invoice  storage.InvoiceViewStore
}

// Apply applies an event to the view store owning its aggregate type.
// Unknown event types are skipped.
func (a Applier) Apply(ctx context.Context, evt event.Event) error {
	switch evt.Type {
	case customer.EventTypeRegistered:
		return a.applyCustomerRegistered(ctx, evt)
	case customer.EventTypeUpdated:
		return a.applyCustomerUpdated(ctx, evt)
	case customer.EventTypeArchived:
		return a.applyCustomerArchived(ctx, evt)
	case product.EventTypeCreated:
		return a.applyProductCreated(ctx, evt)
	case product.EventTypeUpdated:
		return a.applyProductUpdated(ctx, evt)
	case product.EventTypeVariantAdded:
		return a.applyProductVariantAdded(ctx, evt)
	case product.EventTypeArchived:
		return a.applyProductArchived(ctx, evt)
	case contract.EventTypeSigned:
		return a.applyContractSigned(ctx, evt)
	case contract.EventTypePaused:
		return a.applyContractPaused(ctx, evt)
	case contract.EventTypeResumed:
		return a.applyContractResumed(ctx, evt)
	case contract.EventTypeCancelled:
		return a.applyContractStatus(ctx, evt, view.ContractStatusCancelled)
	case contract.EventTypeCompleted:
		return a.applyContractStatus(ctx, evt, view.ContractStatusCompleted)
	case invoice.EventTypeCreated:
		return a.applyInvoiceCreated(ctx, evt)
	case invoice.EventTypePaid:
		return a.applyInvoicePaid(ctx, evt)
	case invoice.EventTypeOverdue:
		return a.applyInvoiceStatus(ctx, evt, view.InvoiceStatusOverdue)
	case invoice.EventTypeCancelled:
		return a.applyInvoiceStatus(ctx, evt, view.InvoiceStatusCancelled)
	default:
		return nil
	}
}

func requireAggregateID(evt event.Event) error {
	if evt.AggregateID == "" {
		return fmt.Errorf("%s event requires an aggregate id", evt.Type)
	}
	return nil
}
