package execute

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

func (r *Router) executeInventory(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	params, ok := ci.Params.(intent.InventoryParams)
	if !ok {
		return mechanics.Result{}, fmt.Errorf("inventory intent carries %T params", ci.Params)
	}
	qty := params.Quantity
	if qty <= 0 {
		qty = 1
	}

	switch ci.Type {
	case intent.TypePickupItem:
		return r.executePickup(ctx, ci, params.ItemName, qty)
	case intent.TypeDropItem:
		return r.executeDrop(ctx, ci, params.ItemName, qty)
	case intent.TypeGiveItem:
		return r.executeGive(ctx, ci, v, params, qty)
	default: // use_item
		return r.executeUse(ctx, ci, v, params.ItemName)
	}
}

func (r *Router) executePickup(ctx context.Context, ci intent.Classified, item string, qty int) (mechanics.Result, error) {
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, fmt.Sprintf("picked up %dx %s", qty, item), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		prev := inventoryCount(ch.Inventory, item)
		ch.Inventory = addInventory(ch.Inventory, item, qty)
		return []mechanics.StateChange{inventoryChange(ch, item, prev, prev+qty,
			fmt.Sprintf("picks up %dx %s", qty, item))}, nil
	})
	return resultFor(changes, fmt.Sprintf("%s picks up %dx %s", ci.CharacterName, qty, item), err)
}

func (r *Router) executeDrop(ctx context.Context, ci intent.Classified, item string, qty int) (mechanics.Result, error) {
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, fmt.Sprintf("dropped %dx %s", qty, item), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		prev := inventoryCount(ch.Inventory, item)
		if prev < qty {
			return nil, failMechanically("%s no longer holds %dx %s", ch.Name, qty, item)
		}
		ch.Inventory = removeInventory(ch.Inventory, item, qty)
		return []mechanics.StateChange{inventoryChange(ch, item, prev, prev-qty,
			fmt.Sprintf("drops %dx %s", qty, item))}, nil
	})
	return resultFor(changes, fmt.Sprintf("%s drops %dx %s", ci.CharacterName, qty, item), err)
}

// executeGive moves a stack between two characters as two compare-and-swap
// writes. The transfer is not atomic across records: if crediting the
// recipient fails after the giver's debit landed, the debit is rolled back
// best-effort and the failure reported.
func (r *Router) executeGive(ctx context.Context, ci intent.Classified, v mechanics.Validation, params intent.InventoryParams, qty int) (mechanics.Result, error) {
	if !v.RecipientFound {
		// Nobody to credit; the hand-off is narrated only.
		return mechanics.Result{
			Success:          true,
			Outcome:          mechanics.OutcomePartial,
			NarrativeContext: fmt.Sprintf("%s offers %dx %s to %s", ci.CharacterName, qty, params.ItemName, params.Recipient),
		}, nil
	}

	var campaignID string
	giverChanges, err := r.mutateCharacter(ctx, ci.CharacterID, fmt.Sprintf("gave %dx %s to %s", qty, params.ItemName, params.Recipient), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		campaignID = ch.CampaignID
		prev := inventoryCount(ch.Inventory, params.ItemName)
		if prev < qty {
			return nil, failMechanically("%s no longer holds %dx %s", ch.Name, qty, params.ItemName)
		}
		ch.Inventory = removeInventory(ch.Inventory, params.ItemName, qty)
		return []mechanics.StateChange{inventoryChange(ch, params.ItemName, prev, prev-qty,
			fmt.Sprintf("gives %dx %s to %s", qty, params.ItemName, params.Recipient))}, nil
	})
	if err != nil || len(giverChanges) == 0 {
		return resultFor(giverChanges, "", err)
	}

	recipient, err := r.characters.FindCharacterByName(ctx, campaignID, params.Recipient)
	if err != nil {
		r.rollbackGive(ctx, ci.CharacterID, params.ItemName, qty)
		return resultFor(nil, "", failMechanically("%s cannot be found to receive the item", params.Recipient))
	}

	recipientChanges, err := r.mutateCharacter(ctx, recipient.ID, fmt.Sprintf("received %dx %s from %s", qty, params.ItemName, ci.CharacterName), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		prev := inventoryCount(ch.Inventory, params.ItemName)
		ch.Inventory = addInventory(ch.Inventory, params.ItemName, qty)
		return []mechanics.StateChange{inventoryChange(ch, params.ItemName, prev, prev+qty,
			fmt.Sprintf("receives %dx %s from %s", qty, params.ItemName, ci.CharacterName))}, nil
	})
	if err != nil {
		r.rollbackGive(ctx, ci.CharacterID, params.ItemName, qty)
		return mechanics.Result{}, err
	}

	narrative := fmt.Sprintf("%s hands %dx %s to %s", ci.CharacterName, qty, params.ItemName, recipient.Name)
	return resultFor(append(giverChanges, recipientChanges...), narrative, nil)
}

// rollbackGive returns a debited stack to the giver after the credit side of
// a transfer failed.
func (r *Router) rollbackGive(ctx context.Context, characterID, item string, qty int) {
	_, err := r.mutateCharacter(ctx, characterID, fmt.Sprintf("transfer of %dx %s failed; returned", qty, item), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		prev := inventoryCount(ch.Inventory, item)
		ch.Inventory = addInventory(ch.Inventory, item, qty)
		return []mechanics.StateChange{inventoryChange(ch, item, prev, prev+qty, "failed transfer returned")}, nil
	})
	if err != nil {
		log.Printf("execute: give rollback failed character=%s item=%s qty=%d: %v", characterID, item, qty, err)
	}
}

// executeUse consumes one charge of a consumable. The healing itself rides on
// a dice roll; non-consumables were already downgraded to narration by the
// validator and never reach here with ConsumableUse set.
func (r *Router) executeUse(ctx context.Context, ci intent.Classified, v mechanics.Validation, item string) (mechanics.Result, error) {
	if !v.ConsumableUse {
		return mechanics.Result{
			Success:          true,
			Outcome:          mechanics.OutcomeSuccess,
			NarrativeContext: fmt.Sprintf("%s uses %s; the effect is narrated", ci.CharacterName, item),
		}, nil
	}

	canonical := item
	if entry, found := r.catalog.ResolveItem(item); found {
		canonical = entry.Name
	}

	changes, err := r.mutateCharacter(ctx, ci.CharacterID, fmt.Sprintf("consumed %s", canonical), func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		name := canonical
		prev := inventoryCount(ch.Inventory, name)
		if prev < 1 {
			name = item
			prev = inventoryCount(ch.Inventory, name)
		}
		if prev < 1 {
			return nil, failMechanically("%s no longer carries %s", ch.Name, item)
		}
		ch.Inventory = removeInventory(ch.Inventory, name, 1)
		return []mechanics.StateChange{inventoryChange(ch, name, prev, prev-1,
			fmt.Sprintf("consumes %s", name))}, nil
	})
	if err != nil {
		return resultFor(nil, "", err)
	}

	result, _ := resultFor(changes, fmt.Sprintf("%s drinks down the %s", ci.CharacterName, canonical), nil)
	if v.HealNotation != "" {
		result.RollsRequired = []mechanics.DiceRollRequest{{
			CharacterID: ci.CharacterID,
			RollType:    "healing",
			Notation:    v.HealNotation,
			Description: fmt.Sprintf("healing from %s", canonical),
			Reason:      "consumable item",
		}}
	}
	return result, nil
}

func sameItem(held, requested string) bool {
	h := strings.ToLower(strings.TrimSpace(held))
	r := strings.ToLower(strings.TrimSpace(requested))
	if h == "" || r == "" {
		return false
	}
	return h == r || strings.Contains(h, r) || strings.Contains(r, h)
}
