// Package service owns the turn contract lifecycle against the record
// stores: opening turns, accepting and classifying player inputs, advancing
// phases under optimistic concurrency, and sweeping stale contracts.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/turnforge/internal/concurrency"
	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/platform/id"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/telemetry"
	"github.com/louisbranch/turnforge/internal/turn"
	"github.com/louisbranch/turnforge/internal/turn/modes"
)

// Config tunes turn lifecycle behavior.
type Config struct {
	LiveStaleness    time.Duration
	AsyncStaleness   time.Duration
	VoteThresholdPct int
}

// DefaultConfig returns the stock lifecycle tuning.
func DefaultConfig() Config {
	return Config{
		LiveStaleness:    turn.DefaultLiveStaleness,
		AsyncStaleness:   turn.DefaultAsyncStaleness,
		VoteThresholdPct: modes.DefaultVoteThresholdPct,
	}
}

// Service coordinates turn contracts and their player inputs.
type Service struct {
	contracts   storage.TurnContractStore
	inputs      storage.PlayerInputStore
	emitter     *telemetry.Emitter
	cfg         Config
	clock       func() time.Time
	idGenerator func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.idGenerator = gen }
}

// WithTelemetry attaches a telemetry emitter.
func WithTelemetry(emitter *telemetry.Emitter) Option {
	return func(s *Service) { s.emitter = emitter }
}

// New builds a turn service over the given stores.
func New(contracts storage.TurnContractStore, inputs storage.PlayerInputStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		contracts:   contracts,
		inputs:      inputs,
		cfg:         cfg,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartTurn opens a new contract for a scene. A scene carries at most one
// open contract at a time; starting a second is rejected.
func (s *Service) StartTurn(ctx context.Context, sceneID string, mode storage.TurnMode, narrativeContext string) (storage.TurnContractRecord, error) {
	if sceneID == "" {
		return storage.TurnContractRecord{}, apperrors.New(apperrors.CodeTurnEmptySceneID, "a turn needs a scene")
	}
	if !turn.ValidMode(mode) {
		return storage.TurnContractRecord{}, apperrors.New(apperrors.CodeTurnInvalidMode,
			fmt.Sprintf("unknown turn mode %q", mode))
	}

	open, err := s.contracts.GetOpenTurnContract(ctx, sceneID)
	switch {
	case err == nil:
		return storage.TurnContractRecord{}, apperrors.WithMetadata(apperrors.CodeTurnOpenContractExists,
			fmt.Sprintf("scene already has open turn %s", open.ID),
			map[string]string{"scene_id": sceneID, "turn_contract_id": open.ID})
	case apperrors.CodeOf(err) != apperrors.CodeNotFound:
		return storage.TurnContractRecord{}, err
	}
	latest, err := s.contracts.LatestTurnNumber(ctx, sceneID)
	if err != nil {
		return storage.TurnContractRecord{}, err
	}
	turnNumber := latest + 1

	recID, err := s.idGenerator()
	if err != nil {
		return storage.TurnContractRecord{}, err
	}
	now := s.clock()
	rec := storage.TurnContractRecord{
		ID:               recID,
		SceneID:          sceneID,
		TurnNumber:       turnNumber,
		Phase:            turn.PhaseAwaitingInput,
		Mode:             mode,
		StateVersion:     1,
		NarrativeContext: narrativeContext,
		PendingSince:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.contracts.PutTurnContract(ctx, rec); err != nil {
		return storage.TurnContractRecord{}, err
	}

	s.emit(ctx, telemetry.SeverityInfo, "turn.started", map[string]string{
		"scene_id": sceneID, "turn_contract_id": rec.ID, "mode": string(mode),
	})
	return rec, nil
}

// SubmitInput accepts one player submission against an open contract,
// classifying it as authoritative or ambient at submission time.
func (s *Service) SubmitInput(ctx context.Context, turnContractID, playerID, characterID, content string, isHost bool) (storage.PlayerInputRecord, error) {
	rec, err := s.contracts.GetTurnContract(ctx, turnContractID)
	if err != nil {
		return storage.PlayerInputRecord{}, err
	}

	existing, err := s.inputs.ListPlayerInputs(ctx, turnContractID)
	if err != nil {
		return storage.PlayerInputRecord{}, err
	}
	hasAuthoritative, alreadySubmitted := false, false
	for _, in := range existing {
		if in.Classification != storage.InputAuthoritative {
			continue
		}
		hasAuthoritative = true
		if in.PlayerID == playerID {
			alreadySubmitted = true
		}
	}

	sub := modes.Submission{
		Mode:             rec.Mode,
		Phase:            rec.Phase,
		IsHost:           isHost,
		HasAuthoritative: hasAuthoritative,
		AlreadySubmitted: alreadySubmitted,
	}
	if err := modes.CanSubmit(sub); err != nil {
		return storage.PlayerInputRecord{}, err
	}

	inputID, err := s.idGenerator()
	if err != nil {
		return storage.PlayerInputRecord{}, err
	}
	input := storage.PlayerInputRecord{
		ID:             inputID,
		TurnContractID: turnContractID,
		PlayerID:       playerID,
		CharacterID:    characterID,
		Classification: modes.Classify(sub),
		Content:        content,
		SubmittedAt:    s.clock(),
	}
	if err := s.inputs.PutPlayerInput(ctx, input); err != nil {
		return storage.PlayerInputRecord{}, err
	}

	s.emit(ctx, telemetry.SeverityInfo, "turn.input_submitted", map[string]string{
		"turn_contract_id": turnContractID,
		"player_id":        playerID,
		"classification":   string(input.Classification),
	})
	return input, nil
}

// AdvanceTurn moves a contract to the target phase. The write is a
// compare-and-swap on StateVersion with bounded retry, so two concurrent
// advances cannot both land on the same version.
func (s *Service) AdvanceTurn(ctx context.Context, turnContractID string, to storage.TurnPhase) (storage.TurnContractRecord, error) {
	var advanced storage.TurnContractRecord
	err := concurrency.Retry(ctx, func(ctx context.Context) error {
		rec, err := s.contracts.GetTurnContract(ctx, turnContractID)
		if err != nil {
			return err
		}
		expected := rec.StateVersion
		if err := turn.Transition(&rec, to, s.clock()); err != nil {
			return err
		}
		if err := s.contracts.UpdateTurnContract(ctx, rec, expected); err != nil {
			return err
		}
		advanced = rec
		return nil
	})
	if err != nil {
		return storage.TurnContractRecord{}, err
	}

	s.emit(ctx, telemetry.SeverityInfo, "turn.advanced", map[string]string{
		"turn_contract_id": turnContractID, "phase": string(to),
	})
	return advanced, nil
}

// TallyVotes computes the current standing of a vote-mode contract.
func (s *Service) TallyVotes(ctx context.Context, turnContractID string, playerCount int) (modes.Tally, error) {
	rec, err := s.contracts.GetTurnContract(ctx, turnContractID)
	if err != nil {
		return modes.Tally{}, err
	}
	if rec.Mode != turn.ModeVote {
		return modes.Tally{}, apperrors.New(apperrors.CodeTurnInvalidMode,
			fmt.Sprintf("turn mode %s has no vote tally", rec.Mode))
	}
	inputs, err := s.inputs.ListPlayerInputs(ctx, turnContractID)
	if err != nil {
		return modes.Tally{}, err
	}
	return modes.TallyVotes(inputs, playerCount, s.cfg.VoteThresholdPct)
}

// StaleTurns lists open contracts that have waited past their mode's
// staleness threshold.
func (s *Service) StaleTurns(ctx context.Context) ([]storage.TurnContractRecord, error) {
	open, err := s.contracts.ListOpenTurnContracts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	var stale []storage.TurnContractRecord
	for _, rec := range open {
		if turn.IsStale(rec, now, s.cfg.LiveStaleness, s.cfg.AsyncStaleness) {
			stale = append(stale, rec)
		}
	}
	return stale, nil
}

func (s *Service) emit(ctx context.Context, severity telemetry.Severity, name string, attrs map[string]string) {
	_ = s.emitter.Emit(ctx, severity, name, attrs)
}
