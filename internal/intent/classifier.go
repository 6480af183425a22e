package intent

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	// fallbackConfidence is assigned when classification fails outright.
	fallbackConfidence = 0.3
	// unknownTypeConfidenceCap bounds confidence when the classifier emits a
	// type outside the taxonomy.
	unknownTypeConfidenceCap = 0.5
	// PriceCeilingCp caps classifier-estimated prices at 1,000 gold.
	PriceCeilingCp = 100000
	// MinMechanicsConfidence is the gate below which mechanical processing
	// is suppressed even when the classifier asked for it.
	MinMechanicsConfidence = 0.6
)

// RawClassification is the unsanitized payload returned by the external
// text-classification collaborator.
type RawClassification struct {
	IntentType        string          `json:"intent_type"`
	Confidence        float64         `json:"confidence"`
	RequiresMechanics bool            `json:"requires_mechanics"`
	Params            json.RawMessage `json:"params"`
}

// TextClassifier is the external text-classification capability. The prompt
// carries the player's input plus scene context; the collaborator is
// constrained to emit a RawClassification.
type TextClassifier interface {
	ClassifyText(ctx context.Context, prompt string) (RawClassification, error)
}

// Classifier wraps the external collaborator with the sanitization rules that
// keep the pipeline alive: classification never aborts a pass.
type Classifier struct {
	external TextClassifier
}

// NewClassifier creates a classifier over the external collaborator.
func NewClassifier(external TextClassifier) *Classifier {
	return &Classifier{external: external}
}

// Classify interprets one free-text action for a character. Any transport or
// parse failure degrades to a low-confidence roleplay intent; the error is
// absorbed, never returned.
func (c *Classifier) Classify(ctx context.Context, characterID, characterName, input string) Classified {
	fallback := Classified{
		Type:          TypeRoleplay,
		Confidence:    fallbackConfidence,
		CharacterID:   characterID,
		CharacterName: characterName,
		Params:        RoleplayParams{},
		OriginalInput: input,
	}

	if c == nil || c.external == nil || strings.TrimSpace(input) == "" {
		return fallback
	}

	raw, err := c.external.ClassifyText(ctx, buildClassificationPrompt(characterName, input))
	if err != nil {
		return fallback
	}

	return sanitize(raw, characterID, characterName, input)
}

// ShouldProcessMechanics reports whether a classified intent clears the
// confidence gate for mechanical processing.
func ShouldProcessMechanics(ci Classified) bool {
	return ci.RequiresMechanics && ci.Type != TypeRoleplay && ci.Confidence >= MinMechanicsConfidence
}

// sanitize enforces the trust boundary on collaborator output: the taxonomy
// is closed, confidence is bounded, and estimated prices are capped.
func sanitize(raw RawClassification, characterID, characterName, input string) Classified {
	ci := Classified{
		Type:              Type(strings.ToLower(strings.TrimSpace(raw.IntentType))),
		Confidence:        clamp01(raw.Confidence),
		CharacterID:       characterID,
		CharacterName:     characterName,
		OriginalInput:     input,
		RequiresMechanics: raw.RequiresMechanics,
	}

	if !Known(ci.Type) {
		ci.Type = TypeRoleplay
		if ci.Confidence > unknownTypeConfidenceCap {
			ci.Confidence = unknownTypeConfidenceCap
		}
		ci.RequiresMechanics = false
	}

	ci.Params = decodeParams(ci.Type, raw.Params)
	return ci
}

// decodeParams selects the params shape for the intent type. Malformed or
// missing payloads decode to the type's zero params rather than failing.
func decodeParams(t Type, raw json.RawMessage) Params {
	switch t {
	case TypePurchase, TypeSell, TypePay, TypeSteal, TypeTrade:
		p := decodeAs[PurchaseParams](raw)
		for i := range p.Items {
			if p.Items[i].Quantity <= 0 {
				p.Items[i].Quantity = 1
			}
			if p.Items[i].EstimatedPriceCp > PriceCeilingCp {
				p.Items[i].EstimatedPriceCp = PriceCeilingCp
			}
			if p.Items[i].EstimatedPriceCp < 0 {
				p.Items[i].EstimatedPriceCp = 0
			}
		}
		if p.AmountCp < 0 {
			p.AmountCp = 0
		}
		return p
	case TypeCastSpell:
		p := decodeAs[SpellParams](raw)
		if p.SlotLevel < 0 || p.SlotLevel > 9 {
			p.SlotLevel = 0
		}
		return p
	case TypeAttack:
		return decodeAs[AttackParams](raw)
	case TypeShortRest, TypeLongRest:
		return decodeAs[RestParams](raw)
	case TypePickupItem, TypeDropItem, TypeGiveItem, TypeUseItem:
		p := decodeAs[InventoryParams](raw)
		if p.Quantity <= 0 {
			p.Quantity = 1
		}
		return p
	case TypeSkillCheck, TypeSavingThrow:
		return decodeAs[CheckParams](raw)
	case TypeMovement:
		return decodeAs[MovementParams](raw)
	default:
		return RoleplayParams{}
	}
}

// decodeAs unmarshals raw into a fresh T, returning the zero value on any
// decode failure so malformed collaborator params never leak half-parsed.
func decodeAs[T any](raw json.RawMessage) T {
	var p T
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		var zero T
		return zero
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildClassificationPrompt frames the player input for the collaborator.
// The schema reminder keeps constrained-output models on the rails.
func buildClassificationPrompt(characterName, input string) string {
	var b strings.Builder
	b.WriteString("Classify the player action below into exactly one intent type.\n")
	b.WriteString("Respond with JSON: {\"intent_type\", \"confidence\", \"requires_mechanics\", \"params\"}.\n")
	b.WriteString("Valid intent types: purchase, sell, pay, steal, trade, cast_spell, attack, short_rest, long_rest, pickup_item, drop_item, give_item, use_item, skill_check, saving_throw, movement, roleplay.\n")
	if characterName != "" {
		b.WriteString("Acting character: ")
		b.WriteString(characterName)
		b.WriteString("\n")
	}
	b.WriteString("Player action: ")
	b.WriteString(input)
	return b.String()
}
