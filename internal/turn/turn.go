// Package turn models the turn contract lifecycle: a four-phase state
// machine governing one discrete step of a shared scene. A contract is
// created per turn, advances only along the transition graph, and reaches a
// terminal state at complete; the next turn gets a fresh contract.
package turn

import (
	"fmt"
	"time"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/storage"
)

// Turn phases.
const (
	PhaseAwaitingInput storage.TurnPhase = "awaiting_input"
	PhaseAwaitingRolls storage.TurnPhase = "awaiting_rolls"
	PhaseResolving     storage.TurnPhase = "resolving"
	PhaseComplete      storage.TurnPhase = "complete"
)

// Turn modes.
const (
	ModeSinglePlayer      storage.TurnMode = "single_player"
	ModeFirstResponseWins storage.TurnMode = "first_response_wins"
	ModeVote              storage.TurnMode = "vote"
	ModeFreeform          storage.TurnMode = "freeform"
)

// transitions is the full phase graph. complete is terminal.
var transitions = map[storage.TurnPhase][]storage.TurnPhase{
	PhaseAwaitingInput: {PhaseAwaitingRolls, PhaseResolving, PhaseComplete},
	PhaseAwaitingRolls: {PhaseResolving, PhaseAwaitingInput},
	PhaseResolving:     {PhaseComplete, PhaseAwaitingInput},
	PhaseComplete:      {},
}

// ValidPhase reports whether p is a known phase.
func ValidPhase(p storage.TurnPhase) bool {
	_, ok := transitions[p]
	return ok
}

// ValidMode reports whether m is a known turn mode.
func ValidMode(m storage.TurnMode) bool {
	switch m {
	case ModeSinglePlayer, ModeFirstResponseWins, ModeVote, ModeFreeform:
		return true
	}
	return false
}

// CanTransition reports whether the graph allows from → to.
func CanTransition(from, to storage.TurnPhase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition advances a contract to the target phase in place. Every accepted
// transition increments StateVersion by one; reaching complete stamps
// CompletedAt with now.
func Transition(rec *storage.TurnContractRecord, to storage.TurnPhase, now time.Time) error {
	if rec.Phase == PhaseComplete {
		return apperrors.WithMetadata(apperrors.CodeTurnCompleted,
			"turn contract is complete and cannot change phase",
			map[string]string{"turn_contract_id": rec.ID})
	}
	if !CanTransition(rec.Phase, to) {
		return apperrors.WithMetadata(apperrors.CodeTurnInvalidTransition,
			fmt.Sprintf("cannot move a turn from %s to %s", rec.Phase, to),
			map[string]string{"from": string(rec.Phase), "to": string(to)})
	}

	rec.Phase = to
	rec.StateVersion++
	rec.UpdatedAt = now
	if to == PhaseComplete {
		completed := now
		rec.CompletedAt = &completed
	}
	return nil
}

// Staleness thresholds. Single-driver modes expect a prompt reply and go
// stale on a wall-clock scale of seconds; collective modes run async over
// hours while a table trickles in votes.
const (
	DefaultLiveStaleness  = 120 * time.Second
	DefaultAsyncStaleness = 24 * time.Hour
)

// StalenessFor returns the staleness threshold appropriate to a mode.
func StalenessFor(mode storage.TurnMode, live, async time.Duration) time.Duration {
	switch mode {
	case ModeSinglePlayer, ModeFirstResponseWins:
		return live
	default:
		return async
	}
}

// IsStale reports whether an open contract has waited past its mode's
// threshold. Complete contracts are never stale.
func IsStale(rec storage.TurnContractRecord, now time.Time, live, async time.Duration) bool {
	if rec.Phase == PhaseComplete {
		return false
	}
	return now.Sub(rec.PendingSince) > StalenessFor(rec.Mode, live, async)
}
