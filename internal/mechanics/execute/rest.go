package execute

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

func (r *Router) executeRest(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	if ci.Type == intent.TypeLongRest {
		return r.executeLongRest(ctx, ci)
	}
	return r.executeShortRest(ctx, ci)
}

// executeLongRest restores every depleted resource, emitting one state change
// per resource that actually moved. A fully rested character long-rests into
// a clean no-op.
func (r *Router) executeLongRest(ctx context.Context, ci intent.Classified) (mechanics.Result, error) {
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, "long rest", func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		var changes []mechanics.StateChange
		record := func(typ mechanics.ChangeType, field, before, after, desc string) {
			changes = append(changes, mechanics.StateChange{
				Type:          typ,
				CharacterID:   ch.ID,
				CharacterName: ch.Name,
				Description:   desc,
				Field:         field,
				Before:        before,
				After:         after,
			})
		}

		if ch.CurrentHP < ch.MaxHP {
			record(mechanics.ChangeHP, "current_hp", itoa(ch.CurrentHP), itoa(ch.MaxHP), "hit points restored to maximum")
			ch.CurrentHP = ch.MaxHP
		}
		if ch.TempHP > 0 {
			record(mechanics.ChangeTempHP, "temp_hp", itoa(ch.TempHP), "0", "temporary hit points fade")
			ch.TempHP = 0
		}
		if spent, max := slotsSpent(ch.SpellSlots); spent > 0 {
			record(mechanics.ChangeSpellSlots, "spell_slots",
				fmt.Sprintf("%d/%d", max-spent, max), fmt.Sprintf("%d/%d", max, max),
				"all spell slots recovered")
			for level, usage := range ch.SpellSlots {
				usage.Used = 0
				ch.SpellSlots[level] = usage
			}
		}
		if ch.DeathSaveSuccesses > 0 || ch.DeathSaveFailures > 0 {
			record(mechanics.ChangeDeathSaves, "death_saves",
				fmt.Sprintf("%d/%d", ch.DeathSaveSuccesses, ch.DeathSaveFailures), "0/0",
				"death saves reset")
			ch.DeathSaveSuccesses, ch.DeathSaveFailures = 0, 0
		}
		if ch.HitDiceSpent > 0 {
			record(mechanics.ChangeHitDice, "hit_dice_spent", itoa(ch.HitDiceSpent), "0", "hit dice recovered")
			ch.HitDiceSpent = 0
		}
		if kept := withoutExhaustion(ch.Conditions); len(kept) != len(ch.Conditions) {
			record(mechanics.ChangeConditions, "conditions",
				strings.Join(ch.Conditions, ", "), strings.Join(kept, ", "),
				"exhaustion lifts")
			ch.Conditions = kept
		}
		return changes, nil
	})
	if err != nil {
		return resultFor(nil, "", err)
	}

	narrative := fmt.Sprintf("%s completes a long rest", ci.CharacterName)
	if len(changes) == 0 {
		narrative = fmt.Sprintf("%s rests through the night already at full strength", ci.CharacterName)
	}
	return resultFor(changes, narrative, nil)
}

// executeShortRest spends hit dice toward a healing roll the dice subsystem
// resolves. Warlocks additionally recover their pact slots; a short rest
// spending no dice is a no-op for everyone else.
func (r *Router) executeShortRest(ctx context.Context, ci intent.Classified) (mechanics.Result, error) {
	params, _ := ci.Params.(intent.RestParams)

	var rolls []mechanics.DiceRollRequest
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, "short rest", func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		rolls = nil
		var changes []mechanics.StateChange

		if params.HitDiceToSpend > 0 {
			available := ch.Level - ch.HitDiceSpent
			if params.HitDiceToSpend > available {
				return nil, failMechanically("%s has %d hit dice left, not %d", ch.Name, available, params.HitDiceToSpend)
			}
			before := ch.HitDiceSpent
			ch.HitDiceSpent += params.HitDiceToSpend
			changes = append(changes, mechanics.StateChange{
				Type:          mechanics.ChangeHitDice,
				CharacterID:   ch.ID,
				CharacterName: ch.Name,
				Description:   fmt.Sprintf("spends %d hit dice recovering", params.HitDiceToSpend),
				Field:         "hit_dice_spent",
				Before:        itoa(before),
				After:         itoa(ch.HitDiceSpent),
			})
			rolls = append(rolls, mechanics.DiceRollRequest{
				CharacterID: ch.ID,
				RollType:    "healing",
				Notation:    hitDiceNotation(ch.Class, params.HitDiceToSpend, AbilityModifier(ch.Abilities.Constitution)),
				Description: fmt.Sprintf("healing from %d hit dice", params.HitDiceToSpend),
				Reason:      "short rest",
			})
		}

		if strings.EqualFold(ch.Class, "warlock") {
			if spent, max := slotsSpent(ch.SpellSlots); spent > 0 {
				changes = append(changes, mechanics.StateChange{
					Type:          mechanics.ChangeSpellSlots,
					CharacterID:   ch.ID,
					CharacterName: ch.Name,
					Description:   "pact slots return on a short rest",
					Field:         "spell_slots",
					Before:        fmt.Sprintf("%d/%d", max-spent, max),
					After:         fmt.Sprintf("%d/%d", max, max),
				})
				for level, usage := range ch.SpellSlots {
					usage.Used = 0
					ch.SpellSlots[level] = usage
				}
			}
		}
		return changes, nil
	})
	if err != nil {
		return resultFor(nil, "", err)
	}

	narrative := fmt.Sprintf("%s takes a short rest", ci.CharacterName)
	if len(changes) == 0 {
		narrative = fmt.Sprintf("%s catches their breath; nothing needed recovering", ci.CharacterName)
	}
	result, _ := resultFor(changes, narrative, nil)
	result.RollsRequired = rolls
	return result, nil
}

// hitDiceNotation builds the healing roll for spending count hit dice:
// the class hit die count times, plus the constitution modifier per die.
func hitDiceNotation(class string, count, conMod int) string {
	die := hitDieFor(class)
	total := count * conMod
	switch {
	case total > 0:
		return fmt.Sprintf("%dd%d+%d", count, die, total)
	case total < 0:
		return fmt.Sprintf("%dd%d%d", count, die, total)
	default:
		return fmt.Sprintf("%dd%d", count, die)
	}
}

func hitDieFor(class string) int {
	switch strings.ToLower(strings.TrimSpace(class)) {
	case "barbarian":
		return 12
	case "fighter", "paladin", "ranger":
		return 10
	case "sorcerer", "wizard":
		return 6
	default:
		return 8
	}
}

func slotsSpent(slots map[int]storage.SlotUsage) (spent, max int) {
	for _, usage := range slots {
		spent += usage.Used
		max += usage.Max
	}
	return spent, max
}

func withoutExhaustion(conditions []string) []string {
	kept := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if strings.Contains(strings.ToLower(c), "exhaust") {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
