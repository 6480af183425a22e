// Package mechanics defines the shared result types flowing between the
// validators, the executors, and the pipeline orchestrator.
package mechanics

// ChangeType categorizes a state mutation for auditing and narration.
type ChangeType string

const (
	ChangeCurrency   ChangeType = "currency"
	ChangeInventory  ChangeType = "inventory"
	ChangeSpellSlots ChangeType = "spell_slots"
	ChangeHP         ChangeType = "hp"
	ChangeTempHP     ChangeType = "temp_hp"
	ChangeDeathSaves ChangeType = "death_saves"
	ChangeConditions ChangeType = "conditions"
	ChangeHitDice    ChangeType = "hit_dice"
)

// StateChange describes one applied mutation. Every StateChange is paired
// with a persisted audit row carrying the same before/after values.
type StateChange struct {
	Type          ChangeType
	CharacterID   string
	CharacterName string
	Description   string
	Field         string
	Before        string
	After         string
}

// Outcome summarizes how an execution went for the narrator.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// DiceRollRequest asks the external dice subsystem to resolve a roll. This
// core never computes roll arithmetic itself.
type DiceRollRequest struct {
	CharacterID string `json:"character_id"`
	RollType    string `json:"roll_type"`
	Notation    string `json:"notation"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	DC          int    `json:"dc,omitempty"`
	Skill       string `json:"skill,omitempty"`
	Ability     string `json:"ability,omitempty"`
}

// Result is what an executor returns: whether the mutation landed, the
// committed changes, and any follow-up rolls the dice subsystem owes us.
type Result struct {
	Success          bool
	Outcome          Outcome
	Changes          []StateChange
	NarrativeContext string
	Errors           []string
	RollsRequired    []DiceRollRequest
}

// Validation is the legality verdict for one intent. Valid() holds exactly
// when Errors is empty; Warnings are advisory and never block execution.
// Domain validators populate only the fields their domain uses.
type Validation struct {
	Errors   []string
	Warnings []string

	// Economic fields.
	TotalCostCp int
	Breakdown   CoinBreakdown
	ChangeCp    int
	Lines       []PurchaseLine
	SalePriceCp int

	// Spellcasting fields.
	HasSpellSlot  bool
	SlotLevelUsed int
	SpellLevel    int
	Concentration bool

	// Combat fields.
	TargetFound bool
	TargetName  string
	WeaponName  string
	Ranged      bool

	// Inventory fields.
	RecipientFound bool
	HealNotation   string
	ConsumableUse  bool
}

// Valid reports whether the intent may be executed.
func (v Validation) Valid() bool {
	return len(v.Errors) == 0
}

// Blocked appends a blocking error.
func (v *Validation) Blocked(msg string) {
	v.Errors = append(v.Errors, msg)
}

// Warn appends an advisory warning.
func (v *Validation) Warn(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// PurchaseLine is one resolved item in a purchase validation.
type PurchaseLine struct {
	Name        string
	Quantity    int
	UnitPriceCp int
	Estimated   bool
}
