package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/storage"
)

// PutScene inserts or replaces one scene record.
func (s *Store) PutScene(ctx context.Context, rec storage.SceneRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("scene id is required")
	}

	entities, err := marshalJSON(rec.Entities)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO scenes (id, campaign_id, name, description, entities, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CampaignID, rec.Name, rec.Description, entities,
		toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put scene: %w", err)
	}
	return nil
}

// GetScene returns one scene by id.
func (s *Store) GetScene(ctx context.Context, id string) (storage.SceneRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SceneRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.SceneRecord{}, err
	}

	var (
		rec                  storage.SceneRecord
		entities             string
		createdAt, updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, campaign_id, name, description, entities, created_at, updated_at
		   FROM scenes WHERE id = ?`, id).
		Scan(&rec.ID, &rec.CampaignID, &rec.Name, &rec.Description, &entities, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SceneRecord{}, storage.ErrNotFound
		}
		return storage.SceneRecord{}, fmt.Errorf("get scene: %w", err)
	}
	if err := unmarshalJSON(entities, &rec.Entities); err != nil {
		return storage.SceneRecord{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
