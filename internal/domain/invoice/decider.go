package invoice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

const (
	commandTypeCreate      command.Type = "invoice.create"
	commandTypeMarkPaid    command.Type = "invoice.mark_paid"
	commandTypeMarkOverdue command.Type = "invoice.mark_overdue"
	commandTypeCancel      command.Type = "invoice.cancel"

	// EventTypeCreated records an invoice being opened.
	EventTypeCreated event.Type = "invoice.created"
	// EventTypePaid records an invoice settlement.
	EventTypePaid event.Type = "invoice.paid"
	// EventTypeOverdue records an invoice passing its due date unpaid.
	EventTypeOverdue event.Type = "invoice.overdue"
	// EventTypeCancelled records an invoice being voided.
	EventTypeCancelled event.Type = "invoice.cancelled"

	rejectionCodeAlreadyCreated   = "INVOICE_ALREADY_CREATED"
	rejectionCodeNotCreated       = "INVOICE_NOT_CREATED"
	rejectionCodeCustomerRequired = "INVOICE_CUSTOMER_REQUIRED"
	rejectionCodeBookingRequired  = "INVOICE_BOOKING_REQUIRED"
	rejectionCodeAmountInvalid    = "INVOICE_AMOUNT_INVALID"
	rejectionCodeDueDateInvalid   = "INVOICE_DUE_DATE_INVALID"
	rejectionCodeNotPayable       = "INVOICE_NOT_PAYABLE"
	rejectionCodeNotOpen          = "INVOICE_NOT_OPEN"
	rejectionCodeAlreadyPaid      = "INVOICE_ALREADY_PAID"
	rejectionCodeAlreadyCancelled = "INVOICE_ALREADY_CANCELLED"
)

// dueDateLayout is the wire format for invoice due dates.
const dueDateLayout = "2006-01-02"

// Decide returns the decision for an invoice command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == commandTypeCreate {
		if state.Created {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyCreated,
				Message: "invoice already created",
			})
		}
		var payload CreatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		customerID := strings.TrimSpace(payload.CustomerID)
		if customerID == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeCustomerRequired,
				Message: "customer id is required",
			})
		}
		bookingID := strings.TrimSpace(payload.BookingID)
		if bookingID == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeBookingRequired,
				Message: "booking id is required",
			})
		}
		if payload.AmountCents <= 0 {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAmountInvalid,
				Message: "amount must be positive",
			})
		}
		if _, err := time.Parse(dueDateLayout, payload.DueDate); err != nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDueDateInvalid,
				Message: fmt.Sprintf("due date %q is invalid", payload.DueDate),
			})
		}

		payloadJSON, _ := json.Marshal(CreatePayload{
			CustomerID:       customerID,
			BookingID:        bookingID,
			ProductVariantID: strings.TrimSpace(payload.ProductVariantID),
			AmountCents:      payload.AmountCents,
			DueDate:          payload.DueDate,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeCreated, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeMarkPaid {
		if !state.Created {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotCreated,
				Message: "invoice not created",
			})
		}
		if state.Status == StatusPaid {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyPaid,
				Message: "invoice already paid",
			})
		}
		if state.Status != StatusOpen && state.Status != StatusOverdue {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotPayable,
				Message: fmt.Sprintf("invoice status %s is not payable", state.Status),
			})
		}
		// The settlement instant is fixed at decision time so replay stays
		// deterministic.
		payloadJSON, _ := json.Marshal(PaidPayload{PaidAt: now().UTC().Format(time.RFC3339)})
		return command.Accept(command.NewEvent(cmd, EventTypePaid, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeMarkOverdue {
		if !state.Created {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotCreated,
				Message: "invoice not created",
			})
		}
		if state.Status != StatusOpen {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotOpen,
				Message: fmt.Sprintf("invoice status %s cannot become overdue", state.Status),
			})
		}
		payloadJSON, _ := json.Marshal(OverduePayload{})
		return command.Accept(command.NewEvent(cmd, EventTypeOverdue, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeCancel {
		if !state.Created {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotCreated,
				Message: "invoice not created",
			})
		}
		if state.Status == StatusPaid {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyPaid,
				Message: "paid invoice cannot be cancelled",
			})
		}
		if state.Status == StatusCancelled {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyCancelled,
				Message: "invoice already cancelled",
			})
		}
		var payload CancelPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		payloadJSON, _ := json.Marshal(CancelPayload{Reason: strings.TrimSpace(payload.Reason)})
		return command.Accept(command.NewEvent(cmd, EventTypeCancelled, payloadJSON, now().UTC()))
	}

	return command.Reject(command.Rejection{
		Code:    "INVOICE_COMMAND_UNSUPPORTED",
		Message: fmt.Sprintf("unsupported invoice command: %s", cmd.Type),
	})
}
