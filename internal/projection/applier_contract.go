package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studiofit/membercore/internal/domain/contract"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/view"
)

const contractDateLayout = "2006-01-02"

func (a Applier) applyContractSigned(ctx context.Context, evt event.Event) error {
	if a.Contract == nil {
		return fmt.Errorf("contract view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload contract.SignPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	start, err := time.Parse(contractDateLayout, payload.StartDate)
	if err != nil {
		return fmt.Errorf("parse start date %q: %w", payload.StartDate, err)
	}
	end, err := time.Parse(contractDateLayout, payload.EndDate)
	if err != nil {
		return fmt.Errorf("parse end date %q: %w", payload.EndDate, err)
	}

	return a.Contract.PutContract(ctx, view.Contract{
		ID:               evt.AggregateID,
		CustomerID:       payload.CustomerID,
		ProductVariantID: payload.ProductVariantID,
		BookingID:        payload.BookingID,
		Status:           view.ContractStatusActive,
		StartDate:        start.UTC(),
		EndDate:          end.UTC(),
		SignedAt:         evt.Timestamp,
		UpdatedAt:        evt.Timestamp,
	})
}

func (a Applier) applyContractPaused(ctx context.Context, evt event.Event) error {
	if a.Contract == nil {
		return fmt.Errorf("contract view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload contract.PausePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Contract.GetContract(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	from, err := time.Parse(contractDateLayout, payload.From)
	if err != nil {
		return fmt.Errorf("parse pause start %q: %w", payload.From, err)
	}
	to, err := time.Parse(contractDateLayout, payload.To)
	if err != nil {
		return fmt.Errorf("parse pause end %q: %w", payload.To, err)
	}

	fromUTC, toUTC := from.UTC(), to.UTC()
	current.Status = view.ContractStatusPaused
	current.PausedFrom = &fromUTC
	current.PausedTo = &toUTC
	current.UpdatedAt = evt.Timestamp
	return a.Contract.PutContract(ctx, current)
}

func (a Applier) applyContractResumed(ctx context.Context, evt event.Event) error {
	if a.Contract == nil {
		return fmt.Errorf("contract view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}
	var payload contract.ResumedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}

	current, err := a.Contract.GetContract(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	newEnd, err := time.Parse(contractDateLayout, payload.NewEndDate)
	if err != nil {
		return fmt.Errorf("parse new end date %q: %w", payload.NewEndDate, err)
	}

	current.Status = view.ContractStatusActive
	current.EndDate = newEnd.UTC()
	current.PausedFrom = nil
	current.PausedTo = nil
	current.UpdatedAt = evt.Timestamp
	return a.Contract.PutContract(ctx, current)
}

func (a Applier) applyContractStatus(ctx context.Context, evt event.Event, status view.ContractStatus) error {
	if a.Contract == nil {
		return fmt.Errorf("contract view store is not configured")
	}
	if err := requireAggregateID(evt); err != nil {
		return err
	}

	current, err := a.Contract.GetContract(ctx, evt.AggregateID)
	if err != nil {
		return err
	}
	current.Status = status
	current.UpdatedAt = evt.Timestamp
	return a.Contract.PutContract(ctx, current)
}
