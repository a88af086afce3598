package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studiofit/membercore/internal/domain/customer"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
	"github.com/studiofit/membercore/internal/view"
)

func (a Applier) applyCustomerRegistered(ctx context.Context, evt event.Event) error {
	if a.Customer == nil {
		return fmt.Errorf("customer view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload customer.RegisterPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	return a.Customer.PutCustomer(ctx, view.Customer{
		ID:           evt.AggregateID,
		Name:         payload.Name,
		Email:        payload.Email,
		Address:      payload.Address,
		RegisteredAt: evt.Timestamp,
		UpdatedAt:    evt.Timestamp,
	})
}

func (a Applier) applyCustomerUpdated(ctx context.Context, evt event.Event) error {
	if a.Customer == nil {
		return fmt.Errorf("customer view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload customer.UpdatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Customer.GetCustomer(ctx, evt.AggregateID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The registration apply has not landed yet; the outbox retry
			// delivers this event again after it does.
			return fmt.Errorf("customer %s not yet projected: %w", evt.AggregateID, err)
		}
		return err
	}

	if name, ok := payload.Fields["name"]; ok {
		current.Name = name
	}
	if email, ok := payload.Fields["email"]; ok {
		current.Email = email
	}
	if address, ok := payload.Fields["address"]; ok {
		current.Address = address
	}
	current.UpdatedAt = evt.Timestamp
	return a.Customer.PutCustomer(ctx, current)
}

func (a Applier) applyCustomerArchived(ctx context.Context, evt event.Event) error {
	if a.Customer == nil {
		return fmt.Errorf("customer view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}

	current, err := a.Customer.GetCustomer(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	current.Archived = true
	current.UpdatedAt = evt.Timestamp
	return a.Customer.PutCustomer(ctx, current)
}
