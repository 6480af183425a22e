package validate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/turnforge/internal/catalog"
	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/storage"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(catalog.MustLoad())
}

func testCharacter() storage.CharacterRecord {
	return storage.CharacterRecord{
		ID:         "char1",
		CampaignID: "camp1",
		Name:       "Wren",
		Class:      "wizard",
		Level:      5,
		CurrentHP:  22,
		MaxHP:      28,
		Abilities:  storage.AbilityScores{Strength: 8, Dexterity: 16, Constitution: 12, Intelligence: 18, Wisdom: 10, Charisma: 11},
		Currency:   storage.Currency{Copper: 50, Silver: 10, Gold: 20},
		Inventory: []storage.InventoryItem{
			{Name: "Dagger", Quantity: 2},
			{Name: "Potion of Healing", Quantity: 1},
			{Name: "Rope (50 feet)", Quantity: 1},
		},
		Equipment: []storage.EquipmentSlot{
			{Slot: "main hand", Item: "Quarterstaff"},
		},
		SpellSlots: map[int]storage.SlotUsage{
			1: {Max: 4, Used: 1},
			2: {Max: 3, Used: 3},
			3: {Max: 2, Used: 0},
		},
		Cantrips:       []string{"Fire Bolt", "Mage Hand"},
		PreparedSpells: []string{"Magic Missile", "Fireball", "Shield", "Web"},
		KnownSpells:    []string{"Magic Missile", "Fireball", "Shield", "Web", "Sleep"},
	}
}

func testScene() storage.SceneRecord {
	return storage.SceneRecord{
		ID:         "scene1",
		CampaignID: "camp1",
		Name:       "The Rusted Flagon",
		Entities: []storage.SceneEntity{
			{Name: "Goblin Sentry", Kind: "monster", Hostile: true},
			{Name: "Barkeep", Kind: "npc"},
		},
	}
}

func vctx() Context {
	return Context{Character: testCharacter(), Scene: testScene()}
}

func purchaseIntent(items ...intent.ItemRequest) intent.Classified {
	return intent.Classified{
		Type:              intent.TypePurchase,
		Confidence:        0.9,
		CharacterID:       "char1",
		CharacterName:     "Wren",
		Params:            intent.PurchaseParams{Items: items},
		RequiresMechanics: true,
	}
}

func TestPurchaseWithinWealth(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(purchaseIntent(intent.ItemRequest{Name: "longsword", Quantity: 1}), vctx())

	if !v.Valid() {
		t.Fatalf("expected valid purchase, errors: %v", v.Errors)
	}
	if v.TotalCostCp != 1500 {
		t.Fatalf("expected 1500 cp, got %d", v.TotalCostCp)
	}
	if got := v.Breakdown.TotalCp() - v.ChangeCp; got != 1500 {
		t.Fatalf("breakdown round-trip: expected 1500, got %d", got)
	}
}

func TestPurchaseExceedsWealthBlocks(t *testing.T) {
	r := testRouter(t)
	// Wealth is 2150 cp; chain mail is 7500 cp.
	v := r.Validate(purchaseIntent(intent.ItemRequest{Name: "chain mail", Quantity: 1}), vctx())

	if v.Valid() {
		t.Fatal("expected blocking error for unaffordable purchase")
	}
	if len(v.Errors) == 0 {
		t.Fatal("expected non-empty errors")
	}
	if !strings.Contains(v.Errors[0], "exceeds carried wealth") {
		t.Fatalf("unexpected error: %q", v.Errors[0])
	}
}

func TestPurchaseIdempotent(t *testing.T) {
	r := testRouter(t)
	ci := purchaseIntent(intent.ItemRequest{Name: "dagger", Quantity: 3})

	first := r.Validate(ci, vctx())
	second := r.Validate(ci, vctx())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical verdicts:\n%+v\n%+v", first, second)
	}
}

func TestPurchaseUnknownItemUsesEstimate(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(purchaseIntent(intent.ItemRequest{Name: "glass figurine of a heron", Quantity: 1, EstimatedPriceCp: 120}), vctx())

	if !v.Valid() {
		t.Fatalf("expected estimated purchase to validate, errors: %v", v.Errors)
	}
	if len(v.Warnings) == 0 {
		t.Fatal("expected estimate warning")
	}
	if !v.Lines[0].Estimated || v.Lines[0].UnitPriceCp != 120 {
		t.Fatalf("expected estimated line at 120 cp, got %+v", v.Lines[0])
	}
}

func TestPurchaseUnknownItemNoEstimateBlocks(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(purchaseIntent(intent.ItemRequest{Name: "zzz impossible zzz", Quantity: 1}), vctx())

	if v.Valid() {
		t.Fatal("expected unknown item with no estimate to block")
	}
	if !strings.Contains(v.Errors[0], "unknown item") {
		t.Fatalf("unexpected error: %q", v.Errors[0])
	}
}

func TestSellRequiresInventory(t *testing.T) {
	r := testRouter(t)
	sell := intent.Classified{
		Type:   intent.TypeSell,
		Params: intent.PurchaseParams{Items: []intent.ItemRequest{{Name: "longsword", Quantity: 1}}},
	}

	v := r.Validate(sell, vctx())
	if v.Valid() {
		t.Fatal("expected sale of absent item to block")
	}
}

func TestSellAtHalfCatalogPrice(t *testing.T) {
	r := testRouter(t)
	sell := intent.Classified{
		Type:   intent.TypeSell,
		Params: intent.PurchaseParams{Items: []intent.ItemRequest{{Name: "dagger", Quantity: 2}}},
	}

	v := r.Validate(sell, vctx())
	if !v.Valid() {
		t.Fatalf("expected valid sale, errors: %v", v.Errors)
	}
	// Dagger is 200 cp; half price is 100 cp each.
	if v.SalePriceCp != 200 {
		t.Fatalf("expected 200 cp sale, got %d", v.SalePriceCp)
	}
}

func TestStealAlwaysValidWithWarning(t *testing.T) {
	r := testRouter(t)
	steal := intent.Classified{Type: intent.TypeSteal, Params: intent.PurchaseParams{}}

	v := r.Validate(steal, vctx())
	if !v.Valid() {
		t.Fatalf("steal must be structurally valid, errors: %v", v.Errors)
	}
	if len(v.Warnings) == 0 || !strings.Contains(v.Warnings[0], "Sleight of Hand") {
		t.Fatalf("expected skill check warning, got %v", v.Warnings)
	}
}

func TestSpellSlotExhaustionScenario(t *testing.T) {
	r := testRouter(t)
	cast := intent.Classified{
		Type:   intent.TypeCastSpell,
		Params: intent.SpellParams{SpellName: "Fireball", SlotLevel: 3},
	}

	// No level 3 slot and nothing above: blocking error.
	depleted := vctx()
	depleted.Character.SpellSlots = map[int]storage.SlotUsage{3: {Max: 1, Used: 1}}
	v := r.Validate(cast, depleted)
	if v.HasSpellSlot {
		t.Fatal("expected hasSpellSlot=false")
	}
	if v.Valid() {
		t.Fatal("expected blocking error for depleted reserves")
	}

	// One free level 4 slot: upcast with warning.
	upcast := vctx()
	upcast.Character.SpellSlots = map[int]storage.SlotUsage{
		3: {Max: 1, Used: 1},
		4: {Max: 1, Used: 0},
	}
	v = r.Validate(cast, upcast)
	if !v.Valid() {
		t.Fatalf("expected upcast to validate, errors: %v", v.Errors)
	}
	if v.SlotLevelUsed != 4 {
		t.Fatalf("expected slotLevelUsed=4, got %d", v.SlotLevelUsed)
	}
	if len(v.Warnings) == 0 || !strings.Contains(v.Warnings[0], "upcasting") {
		t.Fatalf("expected upcast warning, got %v", v.Warnings)
	}
}

func TestCantripRequiresKnowledge(t *testing.T) {
	r := testRouter(t)

	known := r.Validate(intent.Classified{
		Type:   intent.TypeCastSpell,
		Params: intent.SpellParams{SpellName: "fire bolt"},
	}, vctx())
	if !known.Valid() {
		t.Fatalf("expected known cantrip to validate, errors: %v", known.Errors)
	}

	unknown := r.Validate(intent.Classified{
		Type:   intent.TypeCastSpell,
		Params: intent.SpellParams{SpellName: "Sacred Flame"},
	}, vctx())
	if unknown.Valid() {
		t.Fatal("expected unknown cantrip to block")
	}
	if !strings.Contains(unknown.Errors[0], "Fire Bolt") {
		t.Fatalf("expected error to list actual cantrips, got %q", unknown.Errors[0])
	}
}

func TestLeveledSpellRequiresPreparedOrKnown(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(intent.Classified{
		Type:   intent.TypeCastSpell,
		Params: intent.SpellParams{SpellName: "Cure Wounds"},
	}, vctx())

	if v.Valid() {
		t.Fatal("expected unprepared spell to block")
	}
	if !strings.Contains(v.Errors[0], "available spells") {
		t.Fatalf("expected available list in error, got %q", v.Errors[0])
	}
}

func TestConcentrationWarning(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(intent.Classified{
		Type:   intent.TypeCastSpell,
		Params: intent.SpellParams{SpellName: "Web"},
	}, vctx())

	if !v.Valid() {
		t.Fatalf("expected valid cast, errors: %v", v.Errors)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "concentration") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected concentration warning, got %v", v.Warnings)
	}
}

func TestAttackBlockedWhileIncapacitated(t *testing.T) {
	r := testRouter(t)
	ctx := vctx()
	ctx.Character.Conditions = []string{"Stunned"}

	v := r.Validate(intent.Classified{
		Type:   intent.TypeAttack,
		Params: intent.AttackParams{TargetName: "goblin sentry"},
	}, ctx)

	if v.Valid() {
		t.Fatal("expected stunned attacker to be blocked")
	}
}

func TestAttackResolvesTargetAndWeapon(t *testing.T) {
	r := testRouter(t)

	v := r.Validate(intent.Classified{
		Type:   intent.TypeAttack,
		Params: intent.AttackParams{TargetName: "the goblin", WeaponName: "dagger"},
	}, vctx())

	if !v.Valid() {
		t.Fatalf("expected valid attack, errors: %v", v.Errors)
	}
	if !v.TargetFound || v.TargetName != "Goblin Sentry" {
		t.Fatalf("expected goblin resolved, got %+v", v)
	}
	if v.WeaponName != "Dagger" {
		t.Fatalf("expected dagger resolved, got %q", v.WeaponName)
	}
}

func TestAttackMissingTargetWarnsOnly(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(intent.Classified{
		Type:   intent.TypeAttack,
		Params: intent.AttackParams{TargetName: "the dragon"},
	}, vctx())

	if !v.Valid() {
		t.Fatalf("absent target must not block, errors: %v", v.Errors)
	}
	if v.TargetFound {
		t.Fatal("expected targetFound=false")
	}
	if len(v.Warnings) == 0 {
		t.Fatal("expected advisory warning")
	}
}

func TestAttackUnheldWeaponBlocks(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(intent.Classified{
		Type:   intent.TypeAttack,
		Params: intent.AttackParams{TargetName: "goblin", WeaponName: "greatsword"},
	}, vctx())

	if v.Valid() {
		t.Fatal("expected unheld weapon to block")
	}
}

func TestRestHitDiceBounds(t *testing.T) {
	r := testRouter(t)

	negative := r.Validate(intent.Classified{
		Type:   intent.TypeShortRest,
		Params: intent.RestParams{HitDiceToSpend: -1},
	}, vctx())
	if negative.Valid() {
		t.Fatal("expected negative hit dice to block")
	}

	tooMany := r.Validate(intent.Classified{
		Type:   intent.TypeShortRest,
		Params: intent.RestParams{HitDiceToSpend: 6},
	}, vctx())
	if tooMany.Valid() {
		t.Fatal("expected hit dice above level to block")
	}

	ok := r.Validate(intent.Classified{
		Type:   intent.TypeShortRest,
		Params: intent.RestParams{HitDiceToSpend: 2},
	}, vctx())
	if !ok.Valid() {
		t.Fatalf("expected valid rest, errors: %v", ok.Errors)
	}
}

func TestRestWarnsOnHostilesOnly(t *testing.T) {
	r := testRouter(t)
	v := r.Validate(intent.Classified{
		Type:   intent.TypeLongRest,
		Params: intent.RestParams{},
	}, vctx())

	if !v.Valid() {
		t.Fatalf("hostiles must not block a rest, errors: %v", v.Errors)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "Goblin Sentry") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hostile warning, got %v", v.Warnings)
	}
}

func TestDropGiveRequireQuantity(t *testing.T) {
	r := testRouter(t)

	drop := r.Validate(intent.Classified{
		Type:   intent.TypeDropItem,
		Params: intent.InventoryParams{ItemName: "dagger", Quantity: 3},
	}, vctx())
	if drop.Valid() {
		t.Fatal("expected dropping more than held to block")
	}

	give := r.Validate(intent.Classified{
		Type:   intent.TypeGiveItem,
		Params: intent.InventoryParams{ItemName: "lute", Quantity: 1, Recipient: "Brakka"},
	}, vctx())
	if give.Valid() {
		t.Fatal("expected giving an absent item to block")
	}
}

func TestGiveWarnsOnUnknownRecipient(t *testing.T) {
	r := testRouter(t)
	ctx := vctx()
	ctx.Party = []storage.CharacterRecord{{ID: "char2", Name: "Brakka"}}

	known := r.Validate(intent.Classified{
		Type:   intent.TypeGiveItem,
		Params: intent.InventoryParams{ItemName: "dagger", Quantity: 1, Recipient: "brakka"},
	}, ctx)
	if !known.Valid() || !known.RecipientFound {
		t.Fatalf("expected resolved recipient, got %+v", known)
	}

	unknown := r.Validate(intent.Classified{
		Type:   intent.TypeGiveItem,
		Params: intent.InventoryParams{ItemName: "dagger", Quantity: 1, Recipient: "Nobody"},
	}, ctx)
	if !unknown.Valid() {
		t.Fatalf("unknown recipient must not block, errors: %v", unknown.Errors)
	}
	if unknown.RecipientFound || len(unknown.Warnings) == 0 {
		t.Fatalf("expected unresolved recipient warning, got %+v", unknown)
	}
}

func TestUseItemRules(t *testing.T) {
	r := testRouter(t)

	potion := r.Validate(intent.Classified{
		Type:   intent.TypeUseItem,
		Params: intent.InventoryParams{ItemName: "healing potion"},
	}, vctx())
	if !potion.Valid() {
		t.Fatalf("expected potion use to validate, errors: %v", potion.Errors)
	}
	if !potion.ConsumableUse || potion.HealNotation != "2d4+2" {
		t.Fatalf("expected healing consumable fields, got %+v", potion)
	}

	rope := r.Validate(intent.Classified{
		Type:   intent.TypeUseItem,
		Params: intent.InventoryParams{ItemName: "rope"},
	}, vctx())
	if !rope.Valid() {
		t.Fatalf("non-consumable use must warn, not block: %v", rope.Errors)
	}
	if rope.ConsumableUse || len(rope.Warnings) == 0 {
		t.Fatalf("expected narrated-only warning, got %+v", rope)
	}

	missing := r.Validate(intent.Classified{
		Type:   intent.TypeUseItem,
		Params: intent.InventoryParams{ItemName: "lute"},
	}, vctx())
	if missing.Valid() {
		t.Fatal("expected absent item use to block")
	}
}

func TestRoleplayAndSkillCheckBypass(t *testing.T) {
	r := testRouter(t)
	for _, typ := range []intent.Type{intent.TypeRoleplay, intent.TypeSkillCheck} {
		v := r.Validate(intent.Classified{Type: typ, Params: intent.RoleplayParams{}}, vctx())
		if !v.Valid() || len(v.Warnings) != 0 {
			t.Fatalf("%s: expected clean bypass, got %+v", typ, v)
		}
	}
}
