// Package intent turns free-text player actions into typed, confidence-scored
// intents the mechanics pipeline can act on.
package intent

// Type identifies one entry of the closed intent taxonomy.
type Type string

const (
	// Economic intents.
	TypePurchase Type = "purchase"
	TypeSell     Type = "sell"
	TypePay      Type = "pay"
	TypeSteal    Type = "steal"
	TypeTrade    Type = "trade"

	// Spellcasting.
	TypeCastSpell Type = "cast_spell"

	// Combat.
	TypeAttack Type = "attack"

	// Rest.
	TypeShortRest Type = "short_rest"
	TypeLongRest  Type = "long_rest"

	// Inventory.
	TypePickupItem Type = "pickup_item"
	TypeDropItem   Type = "drop_item"
	TypeGiveItem   Type = "give_item"
	TypeUseItem    Type = "use_item"

	// Adjudicated by dice or the narrator rather than by mechanics state.
	TypeSkillCheck  Type = "skill_check"
	TypeSavingThrow Type = "saving_throw"
	TypeMovement    Type = "movement"

	// TypeRoleplay is the catch-all for non-mechanical narration. It is not
	// part of the 16-value taxonomy but every unknown classification
	// degrades to it.
	TypeRoleplay Type = "roleplay"
)

// taxonomy is the closed set of mechanical intent types. Roleplay sits
// outside it as the degradation target.
var taxonomy = map[Type]bool{
	TypePurchase:    true,
	TypeSell:        true,
	TypePay:         true,
	TypeSteal:       true,
	TypeTrade:       true,
	TypeCastSpell:   true,
	TypeAttack:      true,
	TypeShortRest:   true,
	TypeLongRest:    true,
	TypePickupItem:  true,
	TypeDropItem:    true,
	TypeGiveItem:    true,
	TypeUseItem:     true,
	TypeSkillCheck:  true,
	TypeSavingThrow: true,
	TypeMovement:    true,
}

// Known reports whether t is in the closed taxonomy or is roleplay.
func Known(t Type) bool {
	return t == TypeRoleplay || taxonomy[t]
}

// Params is the tagged-union payload carried by a classified intent.
// Each intent type has exactly one params shape; routers match on the
// concrete type rather than digging through an untyped bag.
type Params interface {
	isParams()
}

// ItemRequest names one item and quantity in an economic or inventory intent.
type ItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	// EstimatedPriceCp is the classifier's price guess for uncataloged
	// items, in copper. Capped during sanitization.
	EstimatedPriceCp int `json:"estimated_price_cp"`
}

// PurchaseParams covers purchase, sell, pay, steal, and trade intents.
type PurchaseParams struct {
	Items    []ItemRequest `json:"items"`
	AmountCp int           `json:"amount_cp"`
	Vendor   string        `json:"vendor"`
}

func (PurchaseParams) isParams() {}

// SpellParams covers cast_spell intents.
type SpellParams struct {
	SpellName string `json:"spell_name"`
	SlotLevel int    `json:"slot_level"`
	Target    string `json:"target"`
}

func (SpellParams) isParams() {}

// AttackParams covers attack intents.
type AttackParams struct {
	TargetName string `json:"target_name"`
	WeaponName string `json:"weapon_name"`
	Ranged     bool   `json:"ranged"`
}

func (AttackParams) isParams() {}

// RestParams covers short_rest and long_rest intents.
type RestParams struct {
	HitDiceToSpend int `json:"hit_dice_to_spend"`
}

func (RestParams) isParams() {}

// InventoryParams covers pickup_item, drop_item, give_item, and use_item.
type InventoryParams struct {
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Recipient string `json:"recipient"`
}

func (InventoryParams) isParams() {}

// CheckParams covers skill_check and saving_throw intents.
type CheckParams struct {
	Skill   string `json:"skill"`
	Ability string `json:"ability"`
	DC      int    `json:"dc"`
}

func (CheckParams) isParams() {}

// MovementParams covers movement intents.
type MovementParams struct {
	Destination string `json:"destination"`
}

func (MovementParams) isParams() {}

// RoleplayParams is the empty payload for roleplay intents.
type RoleplayParams struct{}

func (RoleplayParams) isParams() {}

// Classified is a typed interpretation of one free-text player action.
// It lives for a single pipeline pass and is never persisted.
type Classified struct {
	Type              Type
	Confidence        float64
	CharacterID       string
	CharacterName     string
	Params            Params
	OriginalInput     string
	RequiresMechanics bool
}
