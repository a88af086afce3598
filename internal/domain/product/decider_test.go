package product

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

func fixedNow() time.Time {
	return time.Date(2023, 3, 10, 12, 0, 0, 0, time.UTC)
}

func productCommand(t *testing.T, cmdType command.Type, payload any) command.Command {
	t.Helper()
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return command.Command{
		Aggregate:   event.AggregateProduct,
		AggregateID: "prd-1",
		Type:        cmdType,
		PayloadJSON: payloadJSON,
	}
}

func createdState(t *testing.T) State {
	t.Helper()
	cmd := productCommand(t, commandTypeCreate, CreatePayload{
		Name: "Gold Membership",
		Variants: []Variant{
			{ID: "var-1", Name: "Monthly", PriceCents: 7900, DurationDays: 30},
			{ID: "var-2", Name: "Annual", PriceCents: 79000, DurationDays: 365},
		},
	})
	decision := Decide(State{}, cmd, fixedNow)
	if decision.Rejected() {
		t.Fatalf("Decide rejected create: %+v", decision.Rejections)
	}
	return Fold(State{}, decision.Events[0])
}

func TestDecideCreate(t *testing.T) {
	state := createdState(t)
	if !state.Created || state.Name != "Gold Membership" {
		t.Fatalf("state = %+v after create", state)
	}
	if len(state.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(state.Variants))
	}
	if state.Variants["var-1"].PriceCents != 7900 {
		t.Fatalf("variant price = %d, want 7900", state.Variants["var-1"].PriceCents)
	}
}

func TestDecideCreateRejections(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		payload  CreatePayload
		wantCode string
	}{
		{
			"duplicate create",
			State{Created: true},
			CreatePayload{Name: "Gold", Variants: []Variant{{ID: "v", Name: "V", PriceCents: 1, DurationDays: 1}}},
			rejectionCodeAlreadyCreated,
		},
		{
			"missing name",
			State{},
			CreatePayload{Variants: []Variant{{ID: "v", Name: "V", PriceCents: 1, DurationDays: 1}}},
			rejectionCodeNameRequired,
		},
		{
			"no variants",
			State{},
			CreatePayload{Name: "Gold"},
			rejectionCodeVariantsRequired,
		},
		{
			"zero price variant",
			State{},
			CreatePayload{Name: "Gold", Variants: []Variant{{ID: "v", Name: "V", PriceCents: 0, DurationDays: 1}}},
			rejectionCodeVariantInvalid,
		},
		{
			"duplicate variant ids",
			State{},
			CreatePayload{Name: "Gold", Variants: []Variant{
				{ID: "v", Name: "A", PriceCents: 1, DurationDays: 1},
				{ID: "v", Name: "B", PriceCents: 2, DurationDays: 2},
			}},
			rejectionCodeVariantDuplicate,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Decide(tc.state, productCommand(t, commandTypeCreate, tc.payload), fixedNow)
			if !decision.Rejected() {
				t.Fatal("Decide accepted invalid create")
			}
			if decision.Rejections[0].Code != tc.wantCode {
				t.Fatalf("rejection code = %q, want %q", decision.Rejections[0].Code, tc.wantCode)
			}
		})
	}
}

func TestDecideUpdate(t *testing.T) {
	state := createdState(t)
	name := "Platinum Membership"
	decision := Decide(state, productCommand(t, commandTypeUpdate, UpdatePayload{Name: &name}), fixedNow)
	if decision.Rejected() {
		t.Fatalf("Decide rejected: %+v", decision.Rejections)
	}
	next := Fold(state, decision.Events[0])
	if next.Name != name {
		t.Fatalf("name = %q after fold, want %q", next.Name, name)
	}

	empty := Decide(state, productCommand(t, commandTypeUpdate, UpdatePayload{}), fixedNow)
	if !empty.Rejected() || empty.Rejections[0].Code != rejectionCodeUpdateEmpty {
		t.Fatalf("empty update decision = %+v", empty)
	}
}

func TestDecideVariantAdd(t *testing.T) {
	state := createdState(t)
	decision := Decide(state, productCommand(t, commandTypeVariantAdd, VariantAddPayload{
		Variant: Variant{ID: "var-3", Name: "Quarterly", PriceCents: 21000, DurationDays: 90},
	}), fixedNow)
	if decision.Rejected() {
		t.Fatalf("Decide rejected: %+v", decision.Rejections)
	}
	next := Fold(state, decision.Events[0])
	if len(next.Variants) != 3 {
		t.Fatalf("variants = %d after add, want 3", len(next.Variants))
	}
	if len(state.Variants) != 2 {
		t.Fatalf("prior state mutated by fold, variants = %d", len(state.Variants))
	}

	duplicate := Decide(next, productCommand(t, commandTypeVariantAdd, VariantAddPayload{
		Variant: Variant{ID: "var-3", Name: "Quarterly", PriceCents: 21000, DurationDays: 90},
	}), fixedNow)
	if !duplicate.Rejected() || duplicate.Rejections[0].Code != rejectionCodeVariantDuplicate {
		t.Fatalf("duplicate variant decision = %+v", duplicate)
	}
}

func TestDecideArchive(t *testing.T) {
	state := createdState(t)
	decision := Decide(state, productCommand(t, commandTypeArchive, ArchivePayload{Reason: "discontinued"}), fixedNow)
	if decision.Rejected() {
		t.Fatalf("Decide rejected: %+v", decision.Rejections)
	}
	next := Fold(state, decision.Events[0])
	if !next.Archived {
		t.Fatal("state not archived after fold")
	}

	update := Decide(next, productCommand(t, commandTypeUpdate, UpdatePayload{}), fixedNow)
	if !update.Rejected() || update.Rejections[0].Code != rejectionCodeArchived {
		t.Fatalf("update after archive decision = %+v", update)
	}
}
