package execute

import (
	"context"
	"fmt"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// executeSpellcasting consumes the slot the validator picked. Cantrips burn
// nothing and succeed without a write.
func (r *Router) executeSpellcasting(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	params, ok := ci.Params.(intent.SpellParams)
	if !ok {
		return mechanics.Result{}, fmt.Errorf("cast intent carries %T params", ci.Params)
	}

	if v.SpellLevel == 0 {
		return mechanics.Result{
			Success:          true,
			Outcome:          mechanics.OutcomeSuccess,
			NarrativeContext: fmt.Sprintf("%s casts %s; cantrips cost no slot", ci.CharacterName, params.SpellName),
		}, nil
	}

	reason := fmt.Sprintf("cast %s using a level %d slot", params.SpellName, v.SlotLevelUsed)
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, reason, func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		// The validated slot may be gone; scan upward again from the spell's
		// level against the freshest record.
		minLevel := v.SpellLevel
		if params.SlotLevel > minLevel {
			minLevel = params.SlotLevel
		}
		level := spellSlotFor(ch, minLevel)
		if level == 0 {
			return nil, failMechanically("%s has no slot of level %d or higher left for %s", ch.Name, v.SpellLevel, params.SpellName)
		}

		usage := ch.SpellSlots[level]
		before := fmt.Sprintf("%d/%d", usage.Max-usage.Used, usage.Max)
		usage.Used++
		ch.SpellSlots[level] = usage
		after := fmt.Sprintf("%d/%d", usage.Max-usage.Used, usage.Max)

		return []mechanics.StateChange{{
			Type:          mechanics.ChangeSpellSlots,
			CharacterID:   ch.ID,
			CharacterName: ch.Name,
			Description:   reason,
			Field:         fmt.Sprintf("spell_slots.%d", level),
			Before:        before,
			After:         after,
		}}, nil
	})

	narrative := fmt.Sprintf("%s casts %s", ci.CharacterName, params.SpellName)
	if params.Target != "" {
		narrative += fmt.Sprintf(" at %s", params.Target)
	}
	return resultFor(changes, narrative, err)
}

// spellSlotFor returns the lowest level at or above minLevel with a free
// slot, or 0 when reserves are dry.
func spellSlotFor(ch *storage.CharacterRecord, minLevel int) int {
	for level := minLevel; level <= 9; level++ {
		if usage, ok := ch.SpellSlots[level]; ok && usage.Max-usage.Used > 0 {
			return level
		}
	}
	return 0
}
