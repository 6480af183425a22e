// Package sqlite provides the SQLite-backed record store.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/turnforge/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/storage/sqlite/migrations"
)

// Store persists pipeline and turn state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// marshalJSON renders a nested field into its TEXT column.
func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal column: %w", err)
	}
	return string(data), nil
}

// unmarshalJSON reads a TEXT column back into a nested field. Empty columns
// leave the target at its zero value.
func unmarshalJSON(data string, v any) error {
	if strings.TrimSpace(data) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal column: %w", err)
	}
	return nil
}

var (
	_ storage.CharacterStore    = (*Store)(nil)
	_ storage.SceneStore        = (*Store)(nil)
	_ storage.TurnContractStore = (*Store)(nil)
	_ storage.PlayerInputStore  = (*Store)(nil)
	_ storage.AuditStore        = (*Store)(nil)
	_ storage.TelemetryStore    = (*Store)(nil)
)
