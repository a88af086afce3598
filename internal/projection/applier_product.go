package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/product"
	"github.com/studiofit/membercore/internal/view"
)

func (a Applier) applyProductCreated(ctx context.Context, evt event.Event) error {
	if a.Product == nil {
		return fmt.Errorf("product view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload product.CreatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	variants := make([]view.ProductVariant, 0, len(payload.Variants))
	for _, variant := range payload.Variants {
		variants = append(variants, view.ProductVariant{
			ID:           variant.ID,
			Name:         variant.Name,
			PriceCents:   variant.PriceCents,
			DurationDays: variant.DurationDays,
		})
	}

	return a.Product.PutProduct(ctx, view.Product{
		ID:          evt.AggregateID,
		Name:        payload.Name,
		Description: payload.Description,
		Variants:    variants,
		CreatedAt:   evt.Timestamp,
		UpdatedAt:   evt.Timestamp,
	})
}

func (a Applier) applyProductUpdated(ctx context.Context, evt event.Event) error {
	if a.Product == nil {
		return fmt.Errorf("product view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload product.UpdatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Product.GetProduct(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	if payload.Name != nil {
		current.Name = *payload.Name
	}
	if payload.Description != nil {
		current.Description = *payload.Description
	}
	current.UpdatedAt = evt.Timestamp
	return a.Product.PutProduct(ctx, current)
}

func (a Applier) applyProductVariantAdded(ctx context.Context, evt event.Event) error {
	if a.Product == nil {
		return fmt.Errorf("product view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload product.VariantAddPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Product.GetProduct(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	for _, variant := range current.Variants {
		if variant.ID == payload.Variant.ID {
			// Same event delivered twice; the fold is already reflected.
			return nil
		}
	}
	current.Variants = append(current.Variants, view.ProductVariant{
		ID:           payload.Variant.ID,
		Name:         payload.Variant.Name,
		PriceCents:   payload.Variant.PriceCents,
		DurationDays: payload.Variant.DurationDays,
	})
	current.UpdatedAt = evt.Timestamp
	return a.Product.PutProduct(ctx, current)
}

func (a Applier) applyProductArchived(ctx context.Context, evt event.Event) error {
	if a.Product == nil {
		return fmt.Errorf("product view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}

	current, err := a.Product.GetProduct(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	current.Archived = true
	current.UpdatedAt = evt.Timestamp
	return a.Product.PutProduct(ctx, current)
}
