package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/storage"
)

// AppendAuditRecord writes one immutable audit row. Rows are never updated
// or deleted once written.
func (s *Store) AppendAuditRecord(ctx context.Context, rec storage.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("audit record id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO audit_records (id, character_id, campaign_id, change_type, field, old_value, new_value, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CharacterID, rec.CampaignID, rec.ChangeType,
		rec.Field, rec.OldValue, rec.NewValue, rec.Reason, toMillis(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// ListAuditRecordsByCharacter returns a character's audit trail oldest-first.
func (s *Store) ListAuditRecordsByCharacter(ctx context.Context, characterID string) ([]storage.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, character_id, campaign_id, change_type, field, old_value, new_value, reason, created_at
		   FROM audit_records WHERE character_id = ? ORDER BY created_at ASC, id ASC`,
		characterID)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []storage.AuditRecord
	for rows.Next() {
		var (
			rec       storage.AuditRecord
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.CharacterID, &rec.CampaignID, &rec.ChangeType,
			&rec.Field, &rec.OldValue, &rec.NewValue, &rec.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("list audit records: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return out, nil
}

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	attrs, err := marshalJSON(evt.Attrs)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO telemetry_events (severity, name, attrs, timestamp)
		 VALUES (?, ?, ?, ?)`,
		evt.Severity, evt.Name, attrs, toMillis(evt.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
