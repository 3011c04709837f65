package goalstate

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{Waiting, Active, true},
		{Waiting, Paused, false},
		{Waiting, Completed, false},
		{Active, Paused, true},
		{Active, Completed, true},
		{Active, Waiting, false},
		{Paused, Active, true},
		{Paused, Completed, false},
		{Completed, Active, true},
		{Completed, Paused, false},
		{Status("deleted"), Active, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransition_Error(t *testing.T) {
	got, err := Transition(Paused, Completed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if got != Paused {
		t.Errorf("status = %s, want unchanged paused", got)
	}
}

func TestPlanActivation_PausesPreviousActive(t *testing.T) {
	owned := []Goal{
		{ID: 1, Status: Active},
		{ID: 2, Status: Paused},
		{ID: 3, Status: Completed},
	}

	act, err := PlanActivation(Goal{ID: 2, Status: Paused}, owned)
	if err != nil {
		t.Fatalf("PlanActivation() error = %v", err)
	}
	if len(act.Pause) != 1 || act.Pause[0] != 1 {
		t.Errorf("Pause = %v, want [1]", act.Pause)
	}
	if act.Noop() {
		t.Error("activation of a paused goal is not a no-op")
	}
}

func TestPlanActivation_CompletedCanBeReactivated(t *testing.T) {
	act, err := PlanActivation(Goal{ID: 3, Status: Completed}, []Goal{{ID: 1, Status: Active}})
	if err != nil {
		t.Fatalf("PlanActivation() error = %v", err)
	}
	if act.From != Completed || len(act.Pause) != 1 {
		t.Errorf("activation = %+v", act)
	}
}

func TestPlanActivation_AlreadyActive(t *testing.T) {
	act, err := PlanActivation(Goal{ID: 1, Status: Active}, []Goal{{ID: 1, Status: Active}, {ID: 2, Status: Paused}})
	if err != nil {
		t.Fatalf("PlanActivation() error = %v", err)
	}
	if !act.Noop() {
		t.Errorf("expected no-op, got %+v", act)
	}
}

func TestPlanActivation_UnknownStatus(t *testing.T) {
	if _, err := PlanActivation(Goal{ID: 9, Status: Status("archived")}, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}
