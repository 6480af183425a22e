package validate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
)

func (r *Router) validateSpellcasting(ci intent.Classified, vctx Context) mechanics.Validation {
	var v mechanics.Validation

	params, ok := ci.Params.(intent.SpellParams)
	if !ok || strings.TrimSpace(params.SpellName) == "" {
		v.Blocked("cast intent names no spell")
		return v
	}

	ch := vctx.Character
	spellLevel := params.SlotLevel
	spell, found := r.catalog.ResolveSpell(params.SpellName)
	if found {
		spellLevel = spell.Level
		v.Concentration = spell.Concentration
	} else {
		v.Warn(fmt.Sprintf("%s is not in the spell reference; treating it as level %d", params.SpellName, maxInt(spellLevel, 1)))
		if spellLevel == 0 {
			spellLevel = 1
		}
	}
	v.SpellLevel = spellLevel

	spellName := params.SpellName
	if found {
		spellName = spell.Name
	}

	if spellLevel == 0 {
		if !containsFold(ch.Cantrips, spellName) {
			v.Blocked(fmt.Sprintf("%s does not know the cantrip %s; known cantrips: %s",
				ch.Name, spellName, listOrNone(ch.Cantrips)))
		}
		return v
	}

	// Prepared takes priority; known covers casters without preparation.
	if !containsFold(ch.PreparedSpells, spellName) && !containsFold(ch.KnownSpells, spellName) {
		available := append(append([]string{}, ch.PreparedSpells...), ch.KnownSpells...)
		v.Blocked(fmt.Sprintf("%s cannot cast %s; available spells: %s",
			ch.Name, spellName, listOrNone(available)))
		return v
	}

	// Scan upward from the requested level for the first free slot.
	requested := spellLevel
	if params.SlotLevel > spellLevel {
		requested = params.SlotLevel
	}
	for level := requested; level <= 9; level++ {
		usage, ok := ch.SpellSlots[level]
		if !ok || usage.Max-usage.Used <= 0 {
			continue
		}
		v.HasSpellSlot = true
		v.SlotLevelUsed = level
		if level > spellLevel {
			v.Warn(fmt.Sprintf("no level %d slot free; upcasting %s with a level %d slot", spellLevel, spellName, level))
		}
		break
	}
	if !v.HasSpellSlot {
		v.Blocked(fmt.Sprintf("%s's spell reserves are depleted: no slot of level %d or higher remains", ch.Name, requested))
		return v
	}

	if v.Concentration {
		// Concentration is not tracked across turns here; the narrator is
		// told the new spell ends any existing concentration.
		v.Warn(fmt.Sprintf("casting %s ends any existing concentration", spellName))
	}
	return v
}

func containsFold(list []string, name string) bool {
	for _, entry := range list {
		if strings.EqualFold(strings.TrimSpace(entry), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func listOrNone(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
