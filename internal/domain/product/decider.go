package product

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

const (
	commandTypeCreate     command.Type = "product.create"
	commandTypeUpdate     command.Type = "product.update"
	commandTypeVariantAdd command.Type = "product.variant.add"
	commandTypeArchive    command.Type = "product.archive"

	// EventTypeCreated records a product being added to the catalog.
	EventTypeCreated event.Type = "product.created"
	// EventTypeUpdated records a product name or description change.
	EventTypeUpdated event.Type = "product.updated"
	// EventTypeVariantAdded records a new bookable variant.
	EventTypeVariantAdded event.Type = "product.variant_added"
	// EventTypeArchived records a product leaving the catalog.
	EventTypeArchived event.Type = "product.archived"

	rejectionCodeAlreadyCreated   = "PRODUCT_ALREADY_CREATED"
	rejectionCodeNotCreated       = "PRODUCT_NOT_CREATED"
	rejectionCodeArchived         = "PRODUCT_ARCHIVED"
	rejectionCodeNameRequired     = "PRODUCT_NAME_REQUIRED"
	rejectionCodeVariantsRequired = "PRODUCT_VARIANTS_REQUIRED"
	rejectionCodeVariantInvalid   = "PRODUCT_VARIANT_INVALID"
	rejectionCodeVariantDuplicate = "PRODUCT_VARIANT_DUPLICATE"
	rejectionCodeUpdateEmpty      = "PRODUCT_UPDATE_EMPTY"
)

// Decide returns the decision for a product command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == commandTypeCreate {
		if state.Created {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyCreated,
				Message: "product already created",
			})
		}
		var payload CreatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		name := strings.TrimSpace(payload.Name)
		if name == "" {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNameRequired,
				Message: "product name is required",
			})
		}
		if len(payload.Variants) == 0 {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeVariantsRequired,
				Message: "product requires at least one variant",
			})
		}

		seen := make(map[string]bool, len(payload.Variants))
		normalized := make([]Variant, 0, len(payload.Variants))
		for _, variant := range payload.Variants {
			cleaned, rejection := normalizeVariant(variant)
			if rejection != nil {
				return command.Reject(*rejection)
			}
			if seen[cleaned.ID] {
				return command.Reject(command.Rejection{
					Code:    rejectionCodeVariantDuplicate,
					Message: fmt.Sprintf("duplicate variant id: %s", cleaned.ID),
				})
			}
			seen[cleaned.ID] = true
			normalized = append(normalized, cleaned)
		}

		payloadJSON, _ := json.Marshal(CreatePayload{
			Name:        name,
			Description: strings.TrimSpace(payload.Description),
			Variants:    normalized,
		})
		return command.Accept(command.NewEvent(cmd, EventTypeCreated, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeUpdate {
		if rejection := requireMutable(state); rejection != nil {
			return command.Reject(*rejection)
		}
		var payload UpdatePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if payload.Name == nil && payload.Description == nil {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUpdateEmpty,
				Message: "product update requires a name or description",
			})
		}
		if payload.Name != nil {
			trimmed := strings.TrimSpace(*payload.Name)
			if trimmed == "" {
				return command.Reject(command.Rejection{
					Code:    rejectionCodeNameRequired,
					Message: "product name is required",
				})
			}
			payload.Name = &trimmed
		}
		if payload.Description != nil {
			trimmed := strings.TrimSpace(*payload.Description)
			payload.Description = &trimmed
		}
		payloadJSON, _ := json.Marshal(payload)
		return command.Accept(command.NewEvent(cmd, EventTypeUpdated, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeVariantAdd {
		if rejection := requireMutable(state); rejection != nil {
			return command.Reject(*rejection)
		}
		var payload VariantAddPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)

		cleaned, rejection := normalizeVariant(payload.Variant)
		if rejection != nil {
			return command.Reject(*rejection)
		}
		if _, exists := state.Variants[cleaned.ID]; exists {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeVariantDuplicate,
				Message: fmt.Sprintf("duplicate variant id: %s", cleaned.ID),
			})
		}
		payloadJSON, _ := json.Marshal(VariantAddPayload{Variant: cleaned})
		return command.Accept(command.NewEvent(cmd, EventTypeVariantAdded, payloadJSON, now().UTC()))
	}

	if cmd.Type == commandTypeArchive {
		if rejection := requireMutable(state); rejection != nil {
			return command.Reject(*rejection)
		}
		var payload ArchivePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		payloadJSON, _ := json.Marshal(ArchivePayload{Reason: strings.TrimSpace(payload.Reason)})
		return command.Accept(command.NewEvent(cmd, EventTypeArchived, payloadJSON, now().UTC()))
	}

	return command.Reject(command.Rejection{
		Code:    "PRODUCT_COMMAND_UNSUPPORTED",
		Message: fmt.Sprintf("unsupported product command: %s", cmd.Type),
	})
}

func requireMutable(state State) *command.Rejection {
	if !state.Created {
		return &command.Rejection{
			Code:    rejectionCodeNotCreated,
			Message: "product not created",
		}
	}
	if state.Archived {
		return &command.Rejection{
			Code:    rejectionCodeArchived,
			Message: "product is archived",
		}
	}
	return nil
}

func normalizeVariant(variant Variant) (Variant, *command.Rejection) {
	variant.ID = strings.TrimSpace(variant.ID)
	variant.Name = strings.TrimSpace(variant.Name)
	if variant.ID == "" || variant.Name == "" {
		return Variant{}, &command.Rejection{
			Code:    rejectionCodeVariantInvalid,
			Message: "variant requires an id and a name",
		}
	}
	if variant.PriceCents <= 0 {
		return Variant{}, &command.Rejection{
			Code:    rejectionCodeVariantInvalid,
			Message: fmt.Sprintf("variant %s requires a positive price", variant.ID),
		}
	}
	if variant.DurationDays <= 0 {
		return Variant{}, &command.Rejection{
			Code:    rejectionCodeVariantInvalid,
			Message: fmt.Sprintf("variant %s requires a positive duration", variant.ID),
		}
	}
	return variant, nil
}
