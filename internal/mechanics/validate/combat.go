package validate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// incapacitatingConditions block any attack outright.
var incapacitatingConditions = []string{"unconscious", "paralyzed", "stunned", "incapacitated", "petrified"}

func (r *Router) validateCombat(ci intent.Classified, vctx Context) mechanics.Validation {
	var v mechanics.Validation

	params, ok := ci.Params.(intent.AttackParams)
	if !ok {
		v.Blocked("attack intent carried no combat parameters")
		return v
	}

	ch := vctx.Character
	if condition, held := hasAnyCondition(ch, incapacitatingConditions...); held {
		v.Blocked(fmt.Sprintf("%s is %s and cannot attack", ch.Name, condition))
		return v
	}

	v.Ranged = params.Ranged

	target := normalizeEntityName(params.TargetName)
	if target != "" {
		for _, entity := range vctx.Scene.Entities {
			if entityNameMatches(entity.Name, target) {
				v.TargetFound = true
				v.TargetName = entity.Name
				break
			}
		}
		if !v.TargetFound {
			v.TargetName = params.TargetName
			v.Warn(fmt.Sprintf("no %q is known to be in the scene; the narrator decides what the blow finds", params.TargetName))
		}
	}

	weapon := strings.TrimSpace(params.WeaponName)
	if weapon != "" {
		if held, foundName := weaponHeld(ch, weapon); held {
			v.WeaponName = foundName
		} else {
			v.Blocked(fmt.Sprintf("%s carries no %s", ch.Name, weapon))
			return v
		}
	}
	// An empty weapon name is an unarmed strike, always legal.

	if params.Ranged {
		// There is no positional model; range and cover stay advisory.
		v.Warn("ranged attack: distance and cover are narrated, not enforced")
	}
	return v
}

// weaponHeld searches equipment first, then inventory, by substring match.
func weaponHeld(ch storage.CharacterRecord, name string) (bool, string) {
	for _, slot := range ch.Equipment {
		if matchesItemName(slot.Item, name) {
			return true, slot.Item
		}
	}
	for _, stack := range ch.Inventory {
		if stack.Quantity > 0 && matchesItemName(stack.Name, name) {
			return true, stack.Name
		}
	}
	return false, ""
}

// normalizeEntityName lowers, trims, collapses whitespace, and strips
// leading articles from a target name.
func normalizeEntityName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, article := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(n, article) {
			n = strings.TrimSpace(strings.TrimPrefix(n, article))
			break
		}
	}
	return strings.Join(strings.Fields(n), " ")
}

// entityNameMatches compares a scene entity against a normalized target by
// exact or substring match.
func entityNameMatches(entityName, normalizedTarget string) bool {
	e := normalizeEntityName(entityName)
	if e == "" || normalizedTarget == "" {
		return false
	}
	return e == normalizedTarget || strings.Contains(e, normalizedTarget) || strings.Contains(normalizedTarget, e)
}
