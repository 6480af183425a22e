// Package validate decides whether classified intents are currently legal
// against authoritative character and scene state. Validators never mutate.
package validate

import (
	"log"
	"strings"

	"github.com/louisbranch/turnforge/internal/catalog"
	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// Context is the read-only state a validator may consult.
type Context struct {
	Character storage.CharacterRecord
	Scene     storage.SceneRecord
	// Party holds the other characters in the campaign, used to resolve
	// give-item recipients.
	Party []storage.CharacterRecord
}

// Router dispatches intents to the domain validator that owns them.
type Router struct {
	catalog *catalog.Catalog
}

// NewRouter creates a validator router over the reference catalogs.
func NewRouter(cat *catalog.Catalog) *Router {
	return &Router{catalog: cat}
}

// Validate routes one classified intent to its domain validator. The mapping
// is closed: every taxonomy entry is either routed, explicitly bypassed, or
// falls through to the logged no-op branch.
func (r *Router) Validate(ci intent.Classified, vctx Context) mechanics.Validation {
	switch ci.Type {
	case intent.TypePurchase, intent.TypeSell, intent.TypePay, intent.TypeSteal, intent.TypeTrade:
		return r.validateEconomic(ci, vctx)
	case intent.TypeCastSpell:
		return r.validateSpellcasting(ci, vctx)
	case intent.TypeAttack:
		return r.validateCombat(ci, vctx)
	case intent.TypeShortRest, intent.TypeLongRest:
		return r.validateRest(ci, vctx)
	case intent.TypePickupItem, intent.TypeDropItem, intent.TypeGiveItem, intent.TypeUseItem:
		return r.validateInventory(ci, vctx)
	case intent.TypeRoleplay, intent.TypeSkillCheck:
		// Narration and dice adjudication bypass mechanics validation.
		return mechanics.Validation{}
	default:
		log.Printf("validate fallback intent_type=%s character_id=%s", ci.Type, ci.CharacterID)
		return mechanics.Validation{}
	}
}

// hasAnyCondition reports whether the character holds any of the named
// conditions, case-insensitively.
func hasAnyCondition(ch storage.CharacterRecord, names ...string) (string, bool) {
	for _, held := range ch.Conditions {
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(held), name) {
				return name, true
			}
		}
	}
	return "", false
}
