package rest

import (
	"time"

	"github.com/louisbranch/turnforge/internal/dice"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/pipeline"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/turn/modes"
)

// TurnResponse is the wire shape of a turn contract.
type TurnResponse struct {
	ID               string     `json:"id"`
	SceneID          string     `json:"scene_id"`
	TurnNumber       int        `json:"turn_number"`
	Phase            string     `json:"phase"`
	Mode             string     `json:"mode"`
	StateVersion     int64      `json:"state_version"`
	NarrativeContext string     `json:"narrative_context,omitempty"`
	AITask           string     `json:"ai_task,omitempty"`
	PendingSince     time.Time  `json:"pending_since"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func turnResponse(rec storage.TurnContractRecord) TurnResponse {
	return TurnResponse{
		ID:               rec.ID,
		SceneID:          rec.SceneID,
		TurnNumber:       rec.TurnNumber,
		Phase:            string(rec.Phase),
		Mode:             string(rec.Mode),
		StateVersion:     rec.StateVersion,
		NarrativeContext: rec.NarrativeContext,
		AITask:           rec.AITask,
		PendingSince:     rec.PendingSince,
		CompletedAt:      rec.CompletedAt,
	}
}

// InputResponse is the wire shape of a recorded player submission.
type InputResponse struct {
	ID             string    `json:"id"`
	TurnContractID string    `json:"turn_contract_id"`
	PlayerID       string    `json:"player_id"`
	CharacterID    string    `json:"character_id,omitempty"`
	Classification string    `json:"classification"`
	Content        string    `json:"content"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func inputResponse(rec storage.PlayerInputRecord) InputResponse {
	return InputResponse{
		ID:             rec.ID,
		TurnContractID: rec.TurnContractID,
		PlayerID:       rec.PlayerID,
		CharacterID:    rec.CharacterID,
		Classification: string(rec.Classification),
		Content:        rec.Content,
		SubmittedAt:    rec.SubmittedAt,
	}
}

// TallyResponse reports the state of a collective vote.
type TallyResponse struct {
	TotalVotes    int            `json:"total_votes"`
	VotesNeeded   int            `json:"votes_needed"`
	Ready         bool           `json:"ready"`
	WinningOption string         `json:"winning_option,omitempty"`
	WinningVotes  int            `json:"winning_votes"`
	Counts        map[string]int `json:"counts"`
}

func tallyResponse(t modes.Tally) TallyResponse {
	return TallyResponse{
		TotalVotes:    t.TotalVotes,
		VotesNeeded:   t.VotesNeeded,
		Ready:         t.Ready,
		WinningOption: t.WinningOption,
		WinningVotes:  t.WinningVotes,
		Counts:        t.Counts,
	}
}

// ChangeResponse is one applied state mutation.
type ChangeResponse struct {
	Type          string `json:"type"`
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name,omitempty"`
	Description   string `json:"description"`
	Field         string `json:"field,omitempty"`
	Before        string `json:"before,omitempty"`
	After         string `json:"after,omitempty"`
}

// ProcessResponse is the aggregate result of one enforcement pass.
type ProcessResponse struct {
	IntentsProcessed int                         `json:"intents_processed"`
	MechanicsApplied int                         `json:"mechanics_applied"`
	MechanicsFailed  int                         `json:"mechanics_failed"`
	Changes          []ChangeResponse            `json:"changes"`
	RollsRequired    []mechanics.DiceRollRequest `json:"rolls_required"`
	Narrative        string                      `json:"narrative"`
	Success          bool                        `json:"success"`
}

func processResponse(result pipeline.Result) ProcessResponse {
	changes := make([]ChangeResponse, 0, len(result.Changes))
	for _, c := range result.Changes {
		changes = append(changes, ChangeResponse{
			Type:          string(c.Type),
			CharacterID:   c.CharacterID,
			CharacterName: c.CharacterName,
			Description:   c.Description,
			Field:         c.Field,
			Before:        c.Before,
			After:         c.After,
		})
	}
	return ProcessResponse{
		IntentsProcessed: result.IntentsProcessed,
		MechanicsApplied: result.MechanicsApplied,
		MechanicsFailed:  result.MechanicsFailed,
		Changes:          changes,
		RollsRequired:    result.RollsRequired,
		Narrative:        result.Narrative,
		Success:          result.Success,
	}
}

// RollResponse is a settled dice roll.
type RollResponse struct {
	Request mechanics.DiceRollRequest `json:"request"`
	Rolls   []int                     `json:"rolls"`
	Total   int                       `json:"total"`
}

func rollResponse(res dice.Resolution) RollResponse {
	return RollResponse{Request: res.Request, Rolls: res.Rolls, Total: res.Total}
}

// CharacterResponse is the read-only projection of a character.
type CharacterResponse struct {
	ID         string                  `json:"id"`
	CampaignID string                  `json:"campaign_id"`
	Name       string                  `json:"name"`
	Class      string                  `json:"class"`
	Level      int                     `json:"level"`
	CurrentHP  int                     `json:"current_hp"`
	MaxHP      int                     `json:"max_hp"`
	Currency   storage.Currency        `json:"currency"`
	Inventory  []storage.InventoryItem `json:"inventory,omitempty"`
	Conditions []string                `json:"conditions,omitempty"`
	Version    int64                   `json:"version"`
}

func characterResponse(rec storage.CharacterRecord) CharacterResponse {
	return CharacterResponse{
		ID:         rec.ID,
		CampaignID: rec.CampaignID,
		Name:       rec.Name,
		Class:      rec.Class,
		Level:      rec.Level,
		CurrentHP:  rec.CurrentHP,
		MaxHP:      rec.MaxHP,
		Currency:   rec.Currency,
		Inventory:  rec.Inventory,
		Conditions: rec.Conditions,
		Version:    rec.Version,
	}
}

// AuditResponse is one immutable audit trail row.
type AuditResponse struct {
	ID          string    `json:"id"`
	CharacterID string    `json:"character_id"`
	ChangeType  string    `json:"change_type"`
	Field       string    `json:"field,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func auditResponse(rec storage.AuditRecord) AuditResponse {
	return AuditResponse{
		ID:          rec.ID,
		CharacterID: rec.CharacterID,
		ChangeType:  rec.ChangeType,
		Field:       rec.Field,
		OldValue:    rec.OldValue,
		NewValue:    rec.NewValue,
		Reason:      rec.Reason,
		CreatedAt:   rec.CreatedAt,
	}
}
