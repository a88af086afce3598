package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

const (
	commandTypeSign     command.Type = "contract.sign"
	commandTypePause    command.Type = "contract.pause"
	commandTypeResume   command.Type = "contract.resume"
	commandTypeCancel   command.Type = "contract.cancel"
	commandTypeComplete command.Type = "contract.complete"

	// EventTypeSigned records the initial signing of a contract.
	EventTypeSigned event.Type = "contract.signed"
	// EventTypePaused records the start of a pause window.
	EventTypePaused event.Type = "contract.paused"
	// EventTypeResumed records a resume and the validity extension it grants.
	EventTypeResumed event.Type = "contract.resumed"
	// EventTypeCancelled records an early termination.
	EventTypeCancelled event.Type = "contract.cancelled"
	// EventTypeCompleted records a contract that ran to completion.
	EventTypeCompleted event.Type = "contract.completed"

	rejectionCodeAlreadySigned     = "CONTRACT_ALREADY_SIGNED"
	rejectionCodeNotSigned         = "CONTRACT_NOT_SIGNED"
	rejectionCodeNotActive         = "CONTRACT_NOT_ACTIVE"
	rejectionCodeNotPaused         = "CONTRACT_NOT_PAUSED"
	rejectionCodeClosed            = "CONTRACT_CLOSED"
	rejectionCodeCustomerRequired  = "CONTRACT_CUSTOMER_REQUIRED"
	rejectionCodeVariantRequired   = "CONTRACT_PRODUCT_VARIANT_REQUIRED"
	rejectionCodeDatesInvalid      = "CONTRACT_DATES_INVALID"
	rejectionCodePauseRangeInvalid = "CONTRACT_PAUSE_RANGE_INVALID"
	rejectionCodePauseTooShort     = "CONTRACT_PAUSE_TOO_SHORT"
	rejectionCodePauseTooLong      = "CONTRACT_PAUSE_TOO_LONG"
)

// Pause windows must span between 21 and 56 days inclusive.
const (
	minPauseDays = 21
	maxPauseDays = 56
)

// Decide returns the decision for a contract command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == commandTypeSign {
		if state.Signed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadySigned,
				Message: "contract already signed",
			})
		}
		var payload SignPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		customerID := strings.TrimSpace(payload.CustomerID)
		if customerID == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeCustomerRequired,
				Message: "customer id is required",
			})
		}
		variantID := strings.TrimSpace(payload.ProductVariantID)
		if variantID == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeVariantRequired,
				Message: "product variant id is required",
			})
		}
		start, err := parseDate(payload.StartDate)
		if err != nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDatesInvalid,
				Message: "start date is invalid",
			})
		}
		end, err := parseDate(payload.EndDate)
		if err != nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDatesInvalid,
				Message: "end date is invalid",
			})
		}
		if !end.After(start) {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDatesInvalid,
				Message: "end date must be after start date",
			})
		}

		normalized := SignPayload{
			CustomerID:       customerID,
			ProductVariantID: variantID,
			BookingID:        strings.TrimSpace(payload.BookingID),
			StartDate:        formatDate(start),
			EndDate:          formatDate(end),
		}
		payloadJSON, _ := json.Marshal(normalized)
		return command.Accept(command.NewEvent(cmd, EventTypeSigned, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypePause {
		if !state.Signed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotSigned,
				Message: "contract not signed",
			})
		}
		if state.Status != StatusActive {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotActive,
				Message: "pause requires an active contract",
			})
		}
		var payload PausePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		from, err := parseDate(payload.From)
		if err != nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePauseRangeInvalid,
				Message: "pause start date is invalid",
			})
		}
		to, err := parseDate(payload.To)
		if err != nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePauseRangeInvalid,
				Message: "pause end date is invalid",
			})
		}
		if to.Before(from) {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePauseRangeInvalid,
				Message: "pause end date must not be before pause start date",
			})
		}
		days := daysBetween(from, to)
		if days < minPauseDays {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePauseTooShort,
				Message: fmt.Sprintf("pause must span at least %d days, got %d", minPauseDays, days),
			})
		}
		if days > maxPauseDays {
			return command.Reject(command.Rejection{
				Code:    rejectionCodePauseTooLong,
				Message: fmt.Sprintf("pause must span at most %d days, got %d", maxPauseDays, days),
			})
		}

		normalized := PausePayload{From: formatDate(from), To: formatDate(to), Days: days}
		payloadJSON, _ := json.Marshal(normalized)
		return command.Accept(command.NewEvent(cmd, EventTypePaused, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeResume {
		if !state.Signed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotSigned,
				Message: "contract not signed",
			})
		}
		if state.Status != StatusPaused {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotPaused,
				Message: "resume requires a paused contract",
			})
		}

		extension := daysBetween(state.LastPauseFrom, state.LastPauseTo)
		newEnd := state.EndDate.AddDate(0, 0, extension)
		payloadJSON, _ := json.Marshal(ResumedPayload{
			ExtensionDays: extension,
			NewEndDate:    formatDate(newEnd),
		})
		return command.Accept(command.NewEvent(cmd, EventTypeResumed, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeCancel {
		if !state.Signed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotSigned,
				Message: "contract not signed",
			})
		}
		if state.Status.Terminal() {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeClosed,
				Message: "contract is already closed",
			})
		}
		var payload CancelPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		payloadJSON, _ := json.Marshal(CancelPayload{Reason: strings.TrimSpace(payload.Reason)})
		return command.Accept(command.NewEvent(cmd, EventTypeCancelled, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeComplete {
		if !state.Signed {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotSigned,
				Message: "contract not signed",
			})
		}
		if state.Status != StatusActive {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotActive,
				Message: "complete requires an active contract",
			})
		}
		payloadJSON, _ := json.Marshal(CompletePayload{})
		return command.Accept(command.NewEvent(cmd, EventTypeCompleted, payloadJSON, now().UTC()))
	}

	return command.Reject(command.Rejection{
		Code:    "CONTRACT_COMMAND_UNSUPPORTED",
		Message: fmt.Sprintf("unsupported contract command: %s", cmd.Type),
	})
}
