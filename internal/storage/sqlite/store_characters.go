package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/storage"
)

const characterColumns = `id, campaign_id, name, class, level,
       current_hp, max_hp, temp_hp,
       death_save_successes, death_save_failures, hit_dice_spent,
       abilities, currency, inventory, equipment,
       spell_slots, cantrips, known_spells, prepared_spells, conditions,
       version, created_at, updated_at`

// PutCharacter inserts or replaces one character record.
func (s *Store) PutCharacter(ctx context.Context, c storage.CharacterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("character id is required")
	}
	if c.Version == 0 {
		c.Version = 1
	}

	cols, err := characterJSONColumns(c)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO characters (`+characterColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CampaignID, c.Name, c.Class, c.Level,
		c.CurrentHP, c.MaxHP, c.TempHP,
		c.DeathSaveSuccesses, c.DeathSaveFailures, c.HitDiceSpent,
		cols.abilities, cols.currency, cols.inventory, cols.equipment,
		cols.spellSlots, cols.cantrips, cols.knownSpells, cols.preparedSpells, cols.conditions,
		c.Version, toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	return nil
}

// GetCharacter returns one character by id.
func (s *Store) GetCharacter(ctx context.Context, id string) (storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CharacterRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CharacterRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	return scanCharacter(row)
}

// FindCharacterByName returns the campaign character matching name,
// case-insensitively.
func (s *Store) FindCharacterByName(ctx context.Context, campaignID, name string) (storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CharacterRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CharacterRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters
		  WHERE campaign_id = ? AND name = ? COLLATE NOCASE`,
		campaignID, strings.TrimSpace(name))
	return scanCharacter(row)
}

// ListCharactersByCampaign returns every character in a campaign.
func (s *Store) ListCharactersByCampaign(ctx context.Context, campaignID string) ([]storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters
		  WHERE campaign_id = ? ORDER BY name ASC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []storage.CharacterRecord
	for rows.Next() {
		rec, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return out, nil
}

// UpdateCharacter writes a record only when the stored version still equals
// expectedVersion, persisting expectedVersion+1.
func (s *Store) UpdateCharacter(ctx context.Context, c storage.CharacterRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	cols, err := characterJSONColumns(c)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE characters SET
		   campaign_id = ?, name = ?, class = ?, level = ?,
		   current_hp = ?, max_hp = ?, temp_hp = ?,
		   death_save_successes = ?, death_save_failures = ?, hit_dice_spent = ?,
		   abilities = ?, currency = ?, inventory = ?, equipment = ?,
		   spell_slots = ?, cantrips = ?, known_spells = ?, prepared_spells = ?, conditions = ?,
		   version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		c.CampaignID, c.Name, c.Class, c.Level,
		c.CurrentHP, c.MaxHP, c.TempHP,
		c.DeathSaveSuccesses, c.DeathSaveFailures, c.HitDiceSpent,
		cols.abilities, cols.currency, cols.inventory, cols.equipment,
		cols.spellSlots, cols.cantrips, cols.knownSpells, cols.preparedSpells, cols.conditions,
		expectedVersion+1, toMillis(c.UpdatedAt),
		c.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT 1 FROM characters WHERE id = ?`, c.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update character: %w", err)
		}
		return storage.ErrVersionMismatch
	}
	return nil
}

type characterJSON struct {
	abilities, currency, inventory, equipment          string
	spellSlots, cantrips, knownSpells, preparedSpells  string
	conditions                                         string
}

func characterJSONColumns(c storage.CharacterRecord) (characterJSON, error) {
	var cols characterJSON
	var err error
	fields := []struct {
		dst *string
		src any
	}{
		{&cols.abilities, c.Abilities},
		{&cols.currency, c.Currency},
		{&cols.inventory, c.Inventory},
		{&cols.equipment, c.Equipment},
		{&cols.spellSlots, c.SpellSlots},
		{&cols.cantrips, c.Cantrips},
		{&cols.knownSpells, c.KnownSpells},
		{&cols.preparedSpells, c.PreparedSpells},
		{&cols.conditions, c.Conditions},
	}
	for _, f := range fields {
		if *f.dst, err = marshalJSON(f.src); err != nil {
			return characterJSON{}, err
		}
	}
	return cols, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (storage.CharacterRecord, error) {
	var (
		rec                                                               storage.CharacterRecord
		abilities, currency, inventory, equipment, spellSlots             string
		cantrips, knownSpells, preparedSpells, conditions                 string
		createdAt, updatedAt                                              int64
	)
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.Name, &rec.Class, &rec.Level,
		&rec.CurrentHP, &rec.MaxHP, &rec.TempHP,
		&rec.DeathSaveSuccesses, &rec.DeathSaveFailures, &rec.HitDiceSpent,
		&abilities, &currency, &inventory, &equipment,
		&spellSlots, &cantrips, &knownSpells, &preparedSpells, &conditions,
		&rec.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CharacterRecord{}, storage.ErrNotFound
		}
		return storage.CharacterRecord{}, fmt.Errorf("scan character: %w", err)
	}

	for _, f := range []struct {
		data string
		dst  any
	}{
		{abilities, &rec.Abilities},
		{currency, &rec.Currency},
		{inventory, &rec.Inventory},
		{equipment, &rec.Equipment},
		{spellSlots, &rec.SpellSlots},
		{cantrips, &rec.Cantrips},
		{knownSpells, &rec.KnownSpells},
		{preparedSpells, &rec.PreparedSpells},
		{conditions, &rec.Conditions},
	} {
		if err := unmarshalJSON(f.data, f.dst); err != nil {
			return storage.CharacterRecord{}, err
		}
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
