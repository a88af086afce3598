// Package customer implements the customer aggregate.
package customer

// State captures customer facts derived from domain events.
type State struct {
	Registered bool
	Archived   bool
	Name       string
	Email      string
	Address    string
}

// RegisterPayload captures the payload for customer.register commands and
// customer.registered events.
type RegisterPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// UpdatePayload captures the payload for customer.update commands and
// customer.updated events. Only the provided fields change.
type UpdatePayload struct {
	Fields map[string]string `json:"fields"`
}

// ArchivePayload captures the payload for customer.archive commands and
// customer.archived events.
type ArchivePayload struct {
	Reason string `json:"reason,omitempty"`
}
