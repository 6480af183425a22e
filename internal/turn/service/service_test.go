package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/turn"
)

type memContractStore struct {
	records         map[string]storage.TurnContractRecord
	failNextUpdates int
	updates         int
}

func newMemContractStore() *memContractStore {
	return &memContractStore{records: map[string]storage.TurnContractRecord{}}
}

func (s *memContractStore) PutTurnContract(_ context.Context, t storage.TurnContractRecord) error {
	s.records[t.ID] = t
	return nil
}

func (s *memContractStore) GetTurnContract(_ context.Context, id string) (storage.TurnContractRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return storage.TurnContractRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *memContractStore) GetOpenTurnContract(_ context.Context, sceneID string) (storage.TurnContractRecord, error) {
	for _, rec := range s.records {
		if rec.SceneID == sceneID && rec.Phase != turn.PhaseComplete {
			return rec, nil
		}
	}
	return storage.TurnContractRecord{}, storage.ErrNotFound
}

func (s *memContractStore) ListOpenTurnContracts(_ context.Context) ([]storage.TurnContractRecord, error) {
	var out []storage.TurnContractRecord
	for _, rec := range s.records {
		if rec.Phase != turn.PhaseComplete {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memContractStore) LatestTurnNumber(_ context.Context, sceneID string) (int, error) {
	latest := 0
	for _, rec := range s.records {
		if rec.SceneID == sceneID && rec.TurnNumber > latest {
			latest = rec.TurnNumber
		}
	}
	return latest, nil
}

func (s *memContractStore) UpdateTurnContract(_ context.Context, t storage.TurnContractRecord, expectedVersion int64) error {
	s.updates++
	if s.failNextUpdates > 0 {
		s.failNextUpdates--
		return storage.ErrVersionMismatch
	}
	current, ok := s.records[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.StateVersion != expectedVersion {
		return storage.ErrVersionMismatch
	}
	s.records[t.ID] = t
	return nil
}

type memInputStore struct {
	records []storage.PlayerInputRecord
}

func (s *memInputStore) PutPlayerInput(_ context.Context, in storage.PlayerInputRecord) error {
	s.records = append(s.records, in)
	return nil
}

func (s *memInputStore) ListPlayerInputs(_ context.Context, turnContractID string) ([]storage.PlayerInputRecord, error) {
	var out []storage.PlayerInputRecord
	for _, in := range s.records {
		if in.TurnContractID == turnContractID {
			out = append(out, in)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memContractStore, *memInputStore) {
	t.Helper()
	contracts := newMemContractStore()
	inputs := &memInputStore{}
	seq := 0
	svc := New(contracts, inputs, DefaultConfig(),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() (string, error) {
			seq++
			return fmt.Sprintf("id%024d", seq), nil
		}),
	)
	return svc, contracts, inputs
}

func TestStartTurn(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec, err := svc.StartTurn(context.Background(), "scene1", turn.ModeVote, "the door looms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Phase != turn.PhaseAwaitingInput || rec.StateVersion != 1 || rec.TurnNumber != 1 {
		t.Fatalf("unexpected contract: %+v", rec)
	}
	if rec.CompletedAt != nil {
		t.Fatal("fresh contract must not be completed")
	}
}

func TestStartTurnRejectsSecondOpenContract(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.StartTurn(context.Background(), "scene1", turn.ModeFreeform, ""); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	_, err := svc.StartTurn(context.Background(), "scene1", turn.ModeFreeform, "")
	if apperrors.CodeOf(err) != apperrors.CodeTurnOpenContractExists {
		t.Fatalf("second turn: got %v", err)
	}
}

func TestStartTurnNumbersSequentially(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, _ := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")
	if _, err := svc.AdvanceTurn(ctx, first.ID, turn.PhaseComplete); err != nil {
		t.Fatalf("complete first turn: %v", err)
	}
	second, err := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.TurnNumber != 2 {
		t.Fatalf("turn number = %d, want 2", second.TurnNumber)
	}
}

func TestStartTurnValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.StartTurn(context.Background(), "", turn.ModeVote, "")
	if apperrors.CodeOf(err) != apperrors.CodeTurnEmptySceneID {
		t.Fatalf("empty scene: got %v", err)
	}
	_, err = svc.StartTurn(context.Background(), "scene1", "speedrun", "")
	if apperrors.CodeOf(err) != apperrors.CodeTurnInvalidMode {
		t.Fatalf("bad mode: got %v", err)
	}
}

func TestSubmitInputClassifies(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")

	hostFirst, err := svc.SubmitInput(ctx, rec.ID, "host", "char1", "I open the door", true)
	if err != nil {
		t.Fatalf("host first input: %v", err)
	}
	if hostFirst.Classification != storage.InputAuthoritative {
		t.Fatalf("host first input: %s", hostFirst.Classification)
	}

	hostSecond, err := svc.SubmitInput(ctx, rec.ID, "host", "char1", "and I wave", true)
	if err != nil {
		t.Fatalf("host second input: %v", err)
	}
	if hostSecond.Classification != storage.InputAmbient {
		t.Fatalf("host second input: %s", hostSecond.Classification)
	}

	guest, err := svc.SubmitInput(ctx, rec.ID, "p2", "char2", "me too", false)
	if err != nil {
		t.Fatalf("guest input: %v", err)
	}
	if guest.Classification != storage.InputAmbient {
		t.Fatalf("guest input: %s", guest.Classification)
	}
}

func TestSubmitInputDoubleVoteRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeVote, "")
	if _, err := svc.SubmitInput(ctx, rec.ID, "p1", "char1", "go left", false); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := svc.SubmitInput(ctx, rec.ID, "p1", "char1", "go right", false)
	if apperrors.CodeOf(err) != apperrors.CodeTurnInputNotAccepted {
		t.Fatalf("second vote: got %v", err)
	}
}

func TestSubmitInputAfterCompleteRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeFreeform, "")
	if _, err := svc.AdvanceTurn(ctx, rec.ID, turn.PhaseComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := svc.SubmitInput(ctx, rec.ID, "p1", "char1", "too late", false)
	if apperrors.CodeOf(err) != apperrors.CodeTurnInputNotAccepted {
		t.Fatalf("late input: got %v", err)
	}
}

func TestAdvanceTurnBumpsVersionAndRetries(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")
	contracts.failNextUpdates = 1

	advanced, err := svc.AdvanceTurn(ctx, rec.ID, turn.PhaseResolving)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.Phase != turn.PhaseResolving || advanced.StateVersion != 2 {
		t.Fatalf("unexpected contract: %+v", advanced)
	}
	if contracts.updates != 2 {
		t.Fatalf("expected a retried update, got %d attempts", contracts.updates)
	}
}

func TestAdvanceTurnInvalidTransitionNotRetried(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")
	if _, err := svc.AdvanceTurn(ctx, rec.ID, turn.PhaseComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	updatesBefore := contracts.updates

	_, err := svc.AdvanceTurn(ctx, rec.ID, turn.PhaseAwaitingInput)
	if apperrors.CodeOf(err) != apperrors.CodeTurnCompleted {
		t.Fatalf("got %v", err)
	}
	if contracts.updates != updatesBefore {
		t.Fatal("invalid transition must fail before any write")
	}
}

func TestTallyVotesRequiresVoteMode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeFreeform, "")
	_, err := svc.TallyVotes(ctx, rec.ID, 5)
	if apperrors.CodeOf(err) != apperrors.CodeTurnInvalidMode {
		t.Fatalf("got %v", err)
	}
}

func TestTallyVotesEndToEnd(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.StartTurn(ctx, "scene1", turn.ModeVote, "")
	for i, content := range []string{"go left", "Go Left", "go right"} {
		player := fmt.Sprintf("p%d", i+1)
		if _, err := svc.SubmitInput(ctx, rec.ID, player, "", content, false); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}

	tally, err := svc.TallyVotes(ctx, rec.ID, 5)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if !tally.Ready || tally.WinningOption != "go left" || tally.WinningVotes != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestStaleTurns(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh, _ := svc.StartTurn(ctx, "scene1", turn.ModeSinglePlayer, "")
	_ = fresh

	staleRec := storage.TurnContractRecord{
		ID: "old", SceneID: "scene2", Phase: turn.PhaseAwaitingInput,
		Mode: turn.ModeSinglePlayer, StateVersion: 1,
		PendingSince: now.Add(-10 * time.Minute),
	}
	if err := contracts.PutTurnContract(ctx, staleRec); err != nil {
		t.Fatalf("seed stale contract: %v", err)
	}

	stale, err := svc.StaleTurns(ctx)
	if err != nil {
		t.Fatalf("stale turns: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "old" {
		t.Fatalf("expected only the old contract, got %+v", stale)
	}
}
