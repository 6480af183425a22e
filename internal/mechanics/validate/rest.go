package validate

import (
	"fmt"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// disruptiveConditions make resting risky but never illegal; the narrator
// decides whether the rest is actually interrupted.
var disruptiveConditions = []string{"poisoned", "frightened", "diseased", "cursed"}

func (r *Router) validateRest(ci intent.Classified, vctx Context) mechanics.Validation {
	var v mechanics.Validation

	ch := vctx.Character

	if params, ok := ci.Params.(intent.RestParams); ok {
		if params.HitDiceToSpend < 0 {
			v.Blocked("hit dice to spend cannot be negative")
			return v
		}
		if params.HitDiceToSpend > ch.Level {
			v.Blocked(fmt.Sprintf("%s has %d hit dice at most; cannot spend %d", ch.Name, ch.Level, params.HitDiceToSpend))
			return v
		}
	}

	if condition, held := hasAnyCondition(ch, disruptiveConditions...); held {
		v.Warn(fmt.Sprintf("%s is %s; the rest may not be restful", ch.Name, condition))
	}

	if restResourcesFull(ch) {
		v.Warn(fmt.Sprintf("%s is already at full strength; the rest recovers nothing", ch.Name))
	}

	for _, entity := range vctx.Scene.Entities {
		if entity.Hostile {
			v.Warn(fmt.Sprintf("%s is nearby; resting here invites an interruption", entity.Name))
			break
		}
	}
	return v
}

// restResourcesFull reports whether a rest would recover nothing: full HP
// and no spent spell slots.
func restResourcesFull(ch storage.CharacterRecord) bool {
	if ch.CurrentHP < ch.MaxHP {
		return false
	}
	for _, usage := range ch.SpellSlots {
		if usage.Used > 0 {
			return false
		}
	}
	return true
}
