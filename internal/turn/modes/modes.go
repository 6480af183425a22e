// Package modes decides who drives a turn: it classifies each submission as
// turn-advancing or ambient chatter based on the turn mode and phase, gates
// whether a submission is accepted at all, and tallies votes for vote mode.
//
// Classification is fixed at submission time and never revisited, so the
// decision must be a pure function of (mode, phase, host flag, whether an
// authoritative input already exists).
package modes

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/turn"
)

// DefaultVoteThresholdPct is the share of players whose votes must arrive
// before a vote-mode turn can resolve.
const DefaultVoteThresholdPct = 50

// Submission carries everything classification and gating may consult.
type Submission struct {
	Mode             storage.TurnMode
	Phase            storage.TurnPhase
	IsHost           bool
	HasAuthoritative bool
	// AlreadySubmitted reports whether this player has an authoritative
	// input on the contract already. Only vote mode cares.
	AlreadySubmitted bool
}

// Classify decides whether a submission advances the turn or is ambient.
func Classify(s Submission) storage.InputClassification {
	if s.Phase != turn.PhaseAwaitingInput {
		return storage.InputAmbient
	}

	switch s.Mode {
	case turn.ModeSinglePlayer:
		// Only the host drives, and only their first input counts.
		if s.IsHost && !s.HasAuthoritative {
			return storage.InputAuthoritative
		}
		return storage.InputAmbient
	case turn.ModeFirstResponseWins:
		if !s.HasAuthoritative {
			return storage.InputAuthoritative
		}
		return storage.InputAmbient
	case turn.ModeVote, turn.ModeFreeform:
		return storage.InputAuthoritative
	default:
		return storage.InputAmbient
	}
}

// CanSubmit reports whether a submission is accepted at all right now. A
// rejected submission is dropped outright, as opposed to being accepted as
// ambient chatter.
func CanSubmit(s Submission) error {
	if s.Phase == turn.PhaseComplete {
		return apperrors.New(apperrors.CodeTurnInputNotAccepted, "turn is complete; wait for the next one")
	}
	if s.Mode == turn.ModeVote && s.Phase == turn.PhaseAwaitingInput && s.AlreadySubmitted {
		return apperrors.New(apperrors.CodeTurnInputNotAccepted, "each player casts one vote per turn")
	}
	return nil
}

// Tally is the standing of a vote-mode turn.
type Tally struct {
	TotalVotes    int
	VotesNeeded   int
	Ready         bool
	WinningOption string
	WinningVotes  int
	Counts        map[string]int
}

// TallyVotes counts authoritative inputs grouped by normalized content.
// The turn is ready once total votes meet the percentage-of-players
// threshold. Tied options resolve to the lexicographically smallest
// normalized content, keeping the outcome independent of arrival order.
func TallyVotes(inputs []storage.PlayerInputRecord, playerCount, thresholdPct int) (Tally, error) {
	if thresholdPct <= 0 || thresholdPct > 100 {
		return Tally{}, apperrors.New(apperrors.CodeTurnInvalidThreshold,
			fmt.Sprintf("vote threshold must be a percentage in (0,100], got %d", thresholdPct))
	}
	if playerCount < 1 {
		return Tally{}, apperrors.New(apperrors.CodeTurnInvalidThreshold, "vote needs at least one player")
	}

	counts := map[string]int{}
	total := 0
	for _, in := range inputs {
		if in.Classification != storage.InputAuthoritative {
			continue
		}
		option := normalizeVote(in.Content)
		if option == "" {
			continue
		}
		counts[option]++
		total++
	}

	tally := Tally{
		TotalVotes:  total,
		VotesNeeded: ceilDiv(playerCount*thresholdPct, 100),
		Counts:      counts,
	}
	tally.Ready = total >= tally.VotesNeeded
	if len(counts) == 0 {
		return tally, nil
	}

	options := make([]string, 0, len(counts))
	for option := range counts {
		options = append(options, option)
	}
	sort.Strings(options)
	for _, option := range options {
		if counts[option] > tally.WinningVotes {
			tally.WinningOption = option
			tally.WinningVotes = counts[option]
		}
	}
	return tally, nil
}

func normalizeVote(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
