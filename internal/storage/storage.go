// Package storage defines the persistence interfaces and record types for the
// mechanics pipeline and turn lifecycle. Implementations live in subpackages.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrVersionMismatch indicates a compare-and-swap write observed a stale version.
var ErrVersionMismatch = apperrors.New(apperrors.CodeVersionMismatch, "stored version does not match expected version")

// Currency holds the five coin denominations carried by a character.
type Currency struct {
	Copper   int `json:"cp"`
	Silver   int `json:"sp"`
	Electrum int `json:"ep"`
	Gold     int `json:"gp"`
	Platinum int `json:"pp"`
}

// InventoryItem is a named stack of items in a character's inventory.
type InventoryItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// EquipmentSlot maps a named equipment slot to the item occupying it.
type EquipmentSlot struct {
	Slot string `json:"slot"`
	Item string `json:"item"`
}

// SlotUsage tracks spell slot consumption for one spell level.
type SlotUsage struct {
	Max  int `json:"max"`
	Used int `json:"used"`
}

// AbilityScores holds the six raw ability scores.
type AbilityScores struct {
	Strength     int `json:"str"`
	Dexterity    int `json:"dex"`
	Constitution int `json:"con"`
	Intelligence int `json:"int"`
	Wisdom       int `json:"wis"`
	Charisma     int `json:"cha"`
}

// CharacterRecord is the pipeline's projection of a playable character: the
// fields the validators read and the executors mutate. Version is a monotonic
// counter guarded by compare-and-swap writes.
type CharacterRecord struct {
	ID                 string
	CampaignID         string
	Name               string
	Class              string
	Level              int
	CurrentHP          int
	MaxHP              int
	TempHP             int
	DeathSaveSuccesses int
	DeathSaveFailures  int
	HitDiceSpent       int
	Abilities          AbilityScores
	Currency           Currency
	Inventory          []InventoryItem
	Equipment          []EquipmentSlot
	SpellSlots         map[int]SlotUsage
	Cantrips           []string
	KnownSpells        []string
	PreparedSpells     []string
	Conditions         []string
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SceneEntity is something present in a scene that can be targeted or reacted to.
type SceneEntity struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Hostile bool   `json:"hostile"`
}

// SceneRecord captures the scene context validators resolve targets against.
type SceneRecord struct {
	ID          string
	CampaignID  string
	Name        string
	Description string
	Entities    []SceneEntity
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TurnPhase is the lifecycle phase of a turn contract.
type TurnPhase string

// TurnMode decides who controls a turn and how inputs are classified.
type TurnMode string

// TurnContractRecord is the persisted state of one turn contract.
type TurnContractRecord struct {
	ID               string
	SceneID          string
	TurnNumber       int
	Phase            TurnPhase
	Mode             TurnMode
	StateVersion     int64
	NarrativeContext string
	AITask           string
	PendingSince     time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InputClassification marks a submission as turn-advancing or ambient chat.
type InputClassification string

const (
	// InputAuthoritative counts toward advancing the turn.
	InputAuthoritative InputClassification = "authoritative"
	// InputAmbient is chatter that never advances the turn.
	InputAmbient InputClassification = "ambient"
)

// PlayerInputRecord is one submission against a turn contract. Classification
// is fixed at submission time and never retroactively changed.
type PlayerInputRecord struct {
	ID             string
	TurnContractID string
	PlayerID       string
	CharacterID    string
	Classification InputClassification
	Content        string
	SubmittedAt    time.Time
}

// AuditRecord is the immutable trail row paired with every applied state change.
type AuditRecord struct {
	ID          string
	CharacterID string
	CampaignID  string
	ChangeType  string
	Field       string
	OldValue    string
	NewValue    string
	Reason      string
	CreatedAt   time.Time
}

// TelemetryEvent is an operational event recorded by the telemetry emitter.
type TelemetryEvent struct {
	Severity  string
	Name      string
	Attrs     map[string]string
	Timestamp time.Time
}

// CharacterStore persists character projections. UpdateCharacter is a
// compare-and-swap write: it succeeds only when the stored version equals
// expectedVersion and persists the record with version expectedVersion+1,
// returning ErrVersionMismatch otherwise.
type CharacterStore interface {
	PutCharacter(ctx context.Context, c CharacterRecord) error
	GetCharacter(ctx context.Context, id string) (CharacterRecord, error)
	FindCharacterByName(ctx context.Context, campaignID, name string) (CharacterRecord, error)
	ListCharactersByCampaign(ctx context.Context, campaignID string) ([]CharacterRecord, error)
	UpdateCharacter(ctx context.Context, c CharacterRecord, expectedVersion int64) error
}

// SceneStore persists scene context records.
type SceneStore interface {
	PutScene(ctx context.Context, s SceneRecord) error
	GetScene(ctx context.Context, id string) (SceneRecord, error)
}

// TurnContractStore persists turn contracts. UpdateTurnContract follows the
// same compare-and-swap contract as CharacterStore.UpdateCharacter, keyed on
// StateVersion.
type TurnContractStore interface {
	PutTurnContract(ctx context.Context, t TurnContractRecord) error
	GetTurnContract(ctx context.Context, id string) (TurnContractRecord, error)
	// GetOpenTurnContract returns the single non-complete contract for a scene.
	GetOpenTurnContract(ctx context.Context, sceneID string) (TurnContractRecord, error)
	ListOpenTurnContracts(ctx context.Context) ([]TurnContractRecord, error)
	// LatestTurnNumber returns the highest turn number recorded for a scene,
	// or zero when the scene has no turns yet.
	LatestTurnNumber(ctx context.Context, sceneID string) (int, error)
	UpdateTurnContract(ctx context.Context, t TurnContractRecord, expectedVersion int64) error
}

// PlayerInputStore accumulates submissions against turn contracts.
type PlayerInputStore interface {
	PutPlayerInput(ctx context.Context, in PlayerInputRecord) error
	ListPlayerInputs(ctx context.Context, turnContractID string) ([]PlayerInputRecord, error)
}

// AuditStore records the immutable audit trail. Append-only.
type AuditStore interface {
	AppendAuditRecord(ctx context.Context, rec AuditRecord) error
	ListAuditRecordsByCharacter(ctx context.Context, characterID string) ([]AuditRecord, error)
}

// TelemetryStore records operational telemetry events. Append-only.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}
