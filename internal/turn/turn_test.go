package turn

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/storage"
)

func TestHappyPathIncrementsStateVersion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := storage.TurnContractRecord{ID: "t1", Phase: PhaseAwaitingInput, StateVersion: 1}

	steps := []storage.TurnPhase{PhaseAwaitingRolls, PhaseResolving, PhaseComplete}
	for i, next := range steps {
		if err := Transition(&rec, next, now); err != nil {
			t.Fatalf("step %d to %s: %v", i, next, err)
		}
		if rec.Phase != next {
			t.Fatalf("phase = %s, want %s", rec.Phase, next)
		}
		if want := int64(2 + i); rec.StateVersion != want {
			t.Fatalf("state version = %d, want %d", rec.StateVersion, want)
		}
	}
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(now) {
		t.Fatalf("completed_at not stamped: %v", rec.CompletedAt)
	}
}

func TestCompleteIsTerminal(t *testing.T) {
	now := time.Now()
	for _, target := range []storage.TurnPhase{PhaseAwaitingInput, PhaseAwaitingRolls, PhaseResolving, PhaseComplete} {
		rec := storage.TurnContractRecord{ID: "t1", Phase: PhaseComplete, StateVersion: 4}
		err := Transition(&rec, target, now)
		if err == nil {
			t.Fatalf("complete → %s must fail", target)
		}
		if apperrors.CodeOf(err) != apperrors.CodeTurnCompleted {
			t.Fatalf("complete → %s: code %v", target, apperrors.CodeOf(err))
		}
		if rec.StateVersion != 4 {
			t.Fatal("rejected transition must not bump state version")
		}
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	cases := []struct{ from, to storage.TurnPhase }{
		{PhaseAwaitingRolls, PhaseComplete},
		{PhaseAwaitingInput, PhaseAwaitingInput},
		{PhaseResolving, PhaseAwaitingRolls},
		{PhaseResolving, PhaseResolving},
	}
	for _, tc := range cases {
		rec := storage.TurnContractRecord{Phase: tc.from, StateVersion: 1}
		err := Transition(&rec, tc.to, time.Now())
		if err == nil {
			t.Fatalf("%s → %s must fail", tc.from, tc.to)
		}
		if !errors.Is(err, apperrors.New(apperrors.CodeTurnInvalidTransition, "")) {
			t.Fatalf("%s → %s: unexpected code %v", tc.from, tc.to, apperrors.CodeOf(err))
		}
		if rec.Phase != tc.from || rec.StateVersion != 1 {
			t.Fatal("rejected transition must leave the record untouched")
		}
	}
}

func TestRecoveryTransitionsAllowed(t *testing.T) {
	cases := []struct{ from, to storage.TurnPhase }{
		{PhaseAwaitingRolls, PhaseAwaitingInput},
		{PhaseResolving, PhaseAwaitingInput},
		{PhaseAwaitingInput, PhaseComplete},
		{PhaseAwaitingInput, PhaseResolving},
	}
	for _, tc := range cases {
		rec := storage.TurnContractRecord{Phase: tc.from, StateVersion: 1}
		if err := Transition(&rec, tc.to, time.Now()); err != nil {
			t.Fatalf("%s → %s: %v", tc.from, tc.to, err)
		}
	}
}

func TestStalenessByMode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live, async := DefaultLiveStaleness, DefaultAsyncStaleness

	cases := []struct {
		mode    storage.TurnMode
		waited  time.Duration
		stale   bool
		comment string
	}{
		{ModeSinglePlayer, 30 * time.Second, false, "live within threshold"},
		{ModeSinglePlayer, 3 * time.Minute, true, "live past threshold"},
		{ModeFirstResponseWins, 3 * time.Minute, true, "live past threshold"},
		{ModeVote, 3 * time.Minute, false, "async ignores the live threshold"},
		{ModeVote, 25 * time.Hour, true, "async past threshold"},
		{ModeFreeform, 23 * time.Hour, false, "async within threshold"},
	}
	for _, tc := range cases {
		rec := storage.TurnContractRecord{
			Mode:         tc.mode,
			Phase:        PhaseAwaitingInput,
			PendingSince: now.Add(-tc.waited),
		}
		if got := IsStale(rec, now, live, async); got != tc.stale {
			t.Fatalf("%s after %v: stale=%v, want %v (%s)", tc.mode, tc.waited, got, tc.stale, tc.comment)
		}
	}
}

func TestCompleteContractNeverStale(t *testing.T) {
	now := time.Now()
	rec := storage.TurnContractRecord{
		Mode:         ModeSinglePlayer,
		Phase:        PhaseComplete,
		PendingSince: now.Add(-48 * time.Hour),
	}
	if IsStale(rec, now, DefaultLiveStaleness, DefaultAsyncStaleness) {
		t.Fatal("complete contracts must never be stale")
	}
}

func TestValidModeAndPhase(t *testing.T) {
	for _, m := range []storage.TurnMode{ModeSinglePlayer, ModeFirstResponseWins, ModeVote, ModeFreeform} {
		if !ValidMode(m) {
			t.Fatalf("mode %s should be valid", m)
		}
	}
	if ValidMode("speedrun") {
		t.Fatal("unknown mode accepted")
	}
	if ValidPhase("limbo") {
		t.Fatal("unknown phase accepted")
	}
}
