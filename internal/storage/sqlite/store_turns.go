package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/turnforge/internal/storage"
)

const turnContractColumns = `id, scene_id, turn_number, phase, mode, state_version,
       narrative_context, ai_task, pending_since, completed_at, created_at, updated_at`

// PutTurnContract inserts or replaces one turn contract.
func (s *Store) PutTurnContract(ctx context.Context, t storage.TurnContractRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("turn contract id is required")
	}
	if t.StateVersion == 0 {
		t.StateVersion = 1
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO turn_contracts (`+turnContractColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SceneID, t.TurnNumber, string(t.Phase), string(t.Mode), t.StateVersion,
		t.NarrativeContext, t.AITask, toMillis(t.PendingSince),
		nullableMillis(t.CompletedAt), toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put turn contract: %w", err)
	}
	return nil
}

// GetTurnContract returns one contract by id.
func (s *Store) GetTurnContract(ctx context.Context, id string) (storage.TurnContractRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TurnContractRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.TurnContractRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+turnContractColumns+` FROM turn_contracts WHERE id = ?`, id)
	return scanTurnContract(row)
}

// GetOpenTurnContract returns the single non-complete contract for a scene.
func (s *Store) GetOpenTurnContract(ctx context.Context, sceneID string) (storage.TurnContractRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TurnContractRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.TurnContractRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+turnContractColumns+` FROM turn_contracts
		  WHERE scene_id = ? AND phase != 'complete'
		  ORDER BY created_at DESC LIMIT 1`, sceneID)
	return scanTurnContract(row)
}

// ListOpenTurnContracts returns every non-complete contract.
func (s *Store) ListOpenTurnContracts(ctx context.Context) ([]storage.TurnContractRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+turnContractColumns+` FROM turn_contracts
		  WHERE phase != 'complete' ORDER BY pending_since ASC`)
	if err != nil {
		return nil, fmt.Errorf("list open turn contracts: %w", err)
	}
	defer rows.Close()

	var out []storage.TurnContractRecord
	for rows.Next() {
		rec, err := scanTurnContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list open turn contracts: %w", err)
	}
	return out, nil
}

// LatestTurnNumber returns the highest turn number recorded for a scene.
func (s *Store) LatestTurnNumber(ctx context.Context, sceneID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var latest sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT MAX(turn_number) FROM turn_contracts WHERE scene_id = ?`, sceneID).
		Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("latest turn number: %w", err)
	}
	return int(latest.Int64), nil
}

// UpdateTurnContract writes a contract only when the stored state version
// still equals expectedVersion.
func (s *Store) UpdateTurnContract(ctx context.Context, t storage.TurnContractRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE turn_contracts SET
		   scene_id = ?, turn_number = ?, phase = ?, mode = ?, state_version = ?,
		   narrative_context = ?, ai_task = ?, pending_since = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND state_version = ?`,
		t.SceneID, t.TurnNumber, string(t.Phase), string(t.Mode), t.StateVersion,
		t.NarrativeContext, t.AITask, toMillis(t.PendingSince),
		nullableMillis(t.CompletedAt), toMillis(t.UpdatedAt),
		t.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update turn contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update turn contract: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT 1 FROM turn_contracts WHERE id = ?`, t.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update turn contract: %w", err)
		}
		return storage.ErrVersionMismatch
	}
	return nil
}

// PutPlayerInput appends one player submission.
func (s *Store) PutPlayerInput(ctx context.Context, in storage.PlayerInputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("player input id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO player_inputs (id, turn_contract_id, player_id, character_id, classification, content, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.TurnContractID, in.PlayerID, in.CharacterID,
		string(in.Classification), in.Content, toMillis(in.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("put player input: %w", err)
	}
	return nil
}

// ListPlayerInputs returns a contract's submissions in arrival order.
func (s *Store) ListPlayerInputs(ctx context.Context, turnContractID string) ([]storage.PlayerInputRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, turn_contract_id, player_id, character_id, classification, content, submitted_at
		   FROM player_inputs WHERE turn_contract_id = ? ORDER BY submitted_at ASC, id ASC`,
		turnContractID)
	if err != nil {
		return nil, fmt.Errorf("list player inputs: %w", err)
	}
	defer rows.Close()

	var out []storage.PlayerInputRecord
	for rows.Next() {
		var (
			rec            storage.PlayerInputRecord
			classification string
			submittedAt    int64
		)
		if err := rows.Scan(&rec.ID, &rec.TurnContractID, &rec.PlayerID, &rec.CharacterID,
			&classification, &rec.Content, &submittedAt); err != nil {
			return nil, fmt.Errorf("list player inputs: %w", err)
		}
		rec.Classification = storage.InputClassification(classification)
		rec.SubmittedAt = fromMillis(submittedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list player inputs: %w", err)
	}
	return out, nil
}

func nullableMillis(value *time.Time) any {
	if value == nil {
		return nil
	}
	return toMillis(*value)
}

func scanTurnContract(row rowScanner) (storage.TurnContractRecord, error) {
	var (
		rec                  storage.TurnContractRecord
		phase, mode          string
		pendingSince         int64
		completedAt          sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&rec.ID, &rec.SceneID, &rec.TurnNumber, &phase, &mode, &rec.StateVersion,
		&rec.NarrativeContext, &rec.AITask, &pendingSince, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TurnContractRecord{}, storage.ErrNotFound
		}
		return storage.TurnContractRecord{}, fmt.Errorf("scan turn contract: %w", err)
	}
	rec.Phase = storage.TurnPhase(phase)
	rec.Mode = storage.TurnMode(mode)
	rec.PendingSince = fromMillis(pendingSince)
	if completedAt.Valid {
		completed := fromMillis(completedAt.Int64)
		rec.CompletedAt = &completed
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
