package customer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

const (
	commandTypeRegister command.Type = "customer.register"
	commandTypeUpdate   command.Type = "customer.update"
	commandTypeArchive  command.Type = "customer.archive"

	// EventTypeRegistered records a customer registration.
	EventTypeRegistered event.Type = "customer.registered"
	// EventTypeUpdated records a customer profile change.
	EventTypeUpdated event.Type = "customer.updated"
	// EventTypeArchived records a customer being archived.
	EventTypeArchived event.Type = "customer.archived"

	rejectionCodeAlreadyRegistered  = "CUSTOMER_ALREADY_REGISTERED"
	rejectionCodeNotRegistered      = "CUSTOMER_NOT_REGISTERED"
	rejectionCodeArchived           = "CUSTOMER_ARCHIVED"
	rejectionCodeNameRequired       = "CUSTOMER_NAME_REQUIRED"
	rejectionCodeEmailRequired      = "CUSTOMER_EMAIL_REQUIRED"
	rejectionCodeEmailInvalid       = "CUSTOMER_EMAIL_INVALID"
	rejectionCodeUpdateEmpty        = "CUSTOMER_UPDATE_EMPTY"
	rejectionCodeUpdateFieldinvalid = "CUSTOMER_UPDATE_FIELD_INVALID"
)

// Decide returns the decision for a customer command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == commandTypeRegister {
		if state.Registered {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyRegistered,
				Message: "customer already registered",
			})
		}
		var payload RegisterPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		name := strings.TrimSpace(payload.Name)
		if name == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNameRequired,
				Message: "name is required",
			})
		}
		email := strings.TrimSpace(payload.Email)
		if email == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeEmailRequired,
				Message: "email is required",
			})
		}
		if !strings.Contains(email, "@") {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeEmailInvalid,
				Message: "email is invalid",
			})
		}

		normalized := RegisterPayload{
			Name:    name,
			Email:   email,
			Address: strings.TrimSpace(payload.Address),
		}
		payloadJSON, _ := json.Marshal(normalized)
		return command.Accept(command.NewEvent(cmd, EventTypeRegistered, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeUpdate {
		if !state.Registered {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotRegistered,
				Message: "customer not registered",
			})
		}
		if state.Archived {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeArchived,
				Message: "customer is archived",
			})
		}
		var payload UpdatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if len(payload.Fields) == 0 {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUpdateEmpty,
				Message: "customer update requires fields",
			})
		}

		normalized := make(map[string]string, len(payload.Fields))
		for key, value := range payload.Fields {
			switch key {
			case "name":
				trimmed := strings.TrimSpace(value)
				if trimmed == "" {
					return command.Reject(command.Rejection{
						Code:    rejectionCodeNameRequired,
						Message: "name is required",
					})
				}
				normalized[key] = trimmed
			case "email":
				trimmed := strings.TrimSpace(value)
				if !strings.Contains(trimmed, "@") {
					return command.Reject(command.Rejection{
						Code:    rejectionCodeEmailInvalid,
						Message: "email is invalid",
					})
				}
				normalized[key] = trimmed
			case "address":
				normalized[key] = strings.TrimSpace(value)
			default:
				return command.Reject(command.Rejection{
					Code:    rejectionCodeUpdateFieldinvalid,
					Message: fmt.Sprintf("unknown customer field: %s", key),
				})
			}
		}

		payloadJSON, _ := json.Marshal(UpdatePayload{Fields: normalized})
		return command.Accept(command.NewEvent(cmd, EventTypeUpdated, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeArchive {
		if !state.Registered {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotRegistered,
				Message: "customer not registered",
			})
		}
		if state.Archived {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeArchived,
				Message: "customer is already archived",
			})
		}
		var payload ArchivePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		payloadJSON, _ := json.Marshal(ArchivePayload{Reason: strings.TrimSpace(payload.Reason)})
		return command.Accept(command.NewEvent(cmd, EventTypeArchived, payloadJSON, now().UTC()))
	}

	return command.Reject(command.Rejection{
		Code:    "CUSTOMER_COMMAND_UNSUPPORTED",
		Message: fmt.Sprintf("unsupported customer command: %s", cmd.Type),
	})
}
