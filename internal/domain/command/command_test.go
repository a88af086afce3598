package command

import (
	"errors"
	"testing"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
)

func TestValidateForDecisionRequiresAggregateID(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "contract.pause", Aggregate: event.AggregateContract}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := registry.ValidateForDecision(Command{Type: "contract.pause"})
	if !errors.Is(err, ErrAggregateIDRequired) {
		t.Fatalf("expected ErrAggregateIDRequired, got %v", err)
	}
}

func TestValidateForDecisionRejectsUnknownType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForDecision(Command{AggregateID: "c-1", Type: "contract.freeze"})
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestValidateForDecisionNormalizes(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "contract.pause", Aggregate: event.AggregateContract}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cmd, err := registry.ValidateForDecision(Command{AggregateID: "  c-1  ", Type: " contract.pause "})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cmd.AggregateID != "c-1" {
		t.Fatalf("expected trimmed id, got %q", cmd.AggregateID)
	}
	if cmd.Aggregate != event.AggregateContract {
		t.Fatalf("expected aggregate filled from definition, got %q", cmd.Aggregate)
	}
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("expected empty payload default, got %s", cmd.PayloadJSON)
	}
}

func TestValidateForDecisionRejectsMalformedPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "contract.pause", Aggregate: event.AggregateContract}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := registry.ValidateForDecision(Command{
		AggregateID: "c-1",
		Type:        "contract.pause",
		PayloadJSON: []byte(`{"from":`),
	})
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestAcceptCopiesEvents(t *testing.T) {
	source := []event.Event{{Type: "contract.signed"}}
	decision := Accept(source...)
	source[0].Type = "mutated"

	if decision.Rejected() {
		t.Fatal("expected accepted decision")
	}
	if decision.Events[0].Type != "contract.signed" {
		t.Fatalf("expected defensive copy, got %q", decision.Events[0].Type)
	}
}

func TestRejectCarriesReasons(t *testing.T) {
	decision := Reject(Rejection{Code: "CONTRACT_NOT_ACTIVE", Message: "contract is not active"})
	if !decision.Rejected() {
		t.Fatal("expected rejected decision")
	}
	if len(decision.Events) != 0 {
		t.Fatal("expected no events on rejection")
	}
	if decision.Rejections[0].Code != "CONTRACT_NOT_ACTIVE" {
		t.Fatalf("unexpected code %q", decision.Rejections[0].Code)
	}
}

func TestNewEventCopiesEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cmd := Command{
		Aggregate:   event.AggregateContract,
		AggregateID: "c-1",
		Type:        "contract.pause",
	}

	evt := NewEvent(cmd, "contract.paused", []byte(`{"days":30}`), now)
	if evt.Aggregate != event.AggregateContract {
		t.Fatalf("expected contract aggregate, got %q", evt.Aggregate)
	}
	if evt.AggregateID != "c-1" {
		t.Fatalf("expected aggregate id copied, got %q", evt.AggregateID)
	}
	if !evt.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, evt.Timestamp)
	}
}
