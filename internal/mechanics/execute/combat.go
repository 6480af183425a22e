package execute

import (
	"context"
	"fmt"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// executeCombat mutates no state itself: an attack's consequences wait on the
// dice subsystem. It computes the attack roll notation from the freshest
// ability scores and hands the roll off.
func (r *Router) executeCombat(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	params, ok := ci.Params.(intent.AttackParams)
	if !ok {
		return mechanics.Result{}, fmt.Errorf("attack intent carries %T params", ci.Params)
	}

	ch, err := r.characters.GetCharacter(ctx, ci.CharacterID)
	if err != nil {
		return mechanics.Result{}, err
	}

	ability, score := "strength", ch.Abilities.Strength
	if v.Ranged {
		ability, score = "dexterity", ch.Abilities.Dexterity
	}
	bonus := AbilityModifier(score) + ProficiencyBonus(ch.Level)

	target := v.TargetName
	if target == "" {
		target = params.TargetName
	}
	weapon := v.WeaponName
	if weapon == "" {
		weapon = "an unarmed strike"
	}

	return mechanics.Result{
		Success:          true,
		Outcome:          mechanics.OutcomePartial,
		NarrativeContext: fmt.Sprintf("%s attacks %s with %s; hit and damage wait on the roll", ch.Name, target, weapon),
		RollsRequired: []mechanics.DiceRollRequest{{
			CharacterID: ch.ID,
			RollType:    "attack",
			Notation:    attackNotation(bonus),
			Description: fmt.Sprintf("attack roll against %s", target),
			Reason:      fmt.Sprintf("attack with %s", weapon),
			Ability:     ability,
		}},
	}, nil
}

// executeCheck emits the d20 roll for a skill check or saving throw. The
// check itself never changes state; consequences are narrated or applied by
// follow-up intents.
func (r *Router) executeCheck(ctx context.Context, ci intent.Classified) (mechanics.Result, error) {
	params, _ := ci.Params.(intent.CheckParams)

	ch, err := r.characters.GetCharacter(ctx, ci.CharacterID)
	if err != nil {
		return mechanics.Result{}, err
	}

	bonus := AbilityModifier(abilityScore(ch.Abilities, params.Ability))
	rollType := "skill_check"
	desc := fmt.Sprintf("%s check", params.Skill)
	if ci.Type == intent.TypeSavingThrow {
		rollType = "saving_throw"
		desc = fmt.Sprintf("%s saving throw", params.Ability)
	}

	return mechanics.Result{
		Success:          true,
		Outcome:          mechanics.OutcomePartial,
		NarrativeContext: fmt.Sprintf("%s makes a %s", ch.Name, desc),
		RollsRequired: []mechanics.DiceRollRequest{{
			CharacterID: ch.ID,
			RollType:    rollType,
			Notation:    attackNotation(bonus),
			Description: desc,
			Reason:      ci.OriginalInput,
			DC:          params.DC,
			Skill:       params.Skill,
			Ability:     params.Ability,
		}},
	}, nil
}

func attackNotation(bonus int) string {
	switch {
	case bonus > 0:
		return fmt.Sprintf("1d20+%d", bonus)
	case bonus < 0:
		return fmt.Sprintf("1d20%d", bonus)
	default:
		return "1d20"
	}
}

// AbilityModifier converts a raw ability score to its modifier.
func AbilityModifier(score int) int {
	// Floor division: a score of 8 is -1, not 0.
	if score >= 10 {
		return (score - 10) / 2
	}
	return -((11 - score) / 2)
}

// ProficiencyBonus derives the flat proficiency bonus from character level.
func ProficiencyBonus(level int) int {
	if level < 1 {
		level = 1
	}
	return 1 + (level+3)/4
}

func abilityScore(a storage.AbilityScores, name string) int {
	switch name {
	case "strength", "str":
		return a.Strength
	case "dexterity", "dex":
		return a.Dexterity
	case "constitution", "con":
		return a.Constitution
	case "intelligence", "int":
		return a.Intelligence
	case "wisdom", "wis":
		return a.Wisdom
	case "charisma", "cha":
		return a.Charisma
	default:
		return 10
	}
}
