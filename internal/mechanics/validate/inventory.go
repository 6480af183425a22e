package validate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
)

// actionDenyingConditions prevent deliberate item use.
var actionDenyingConditions = []string{"unconscious", "paralyzed", "stunned", "incapacitated", "petrified", "restrained"}

func (r *Router) validateInventory(ci intent.Classified, vctx Context) mechanics.Validation {
	var v mechanics.Validation

	params, ok := ci.Params.(intent.InventoryParams)
	if !ok || strings.TrimSpace(params.ItemName) == "" {
		v.Blocked("inventory intent names no item")
		return v
	}

	ch := vctx.Character
	qty := params.Quantity
	if qty <= 0 {
		qty = 1
	}

	switch ci.Type {
	case intent.TypePickupItem:
		// Whether the item is actually present in the environment cannot be
		// verified from character state; the narrator arbitrates.
		v.Warn(fmt.Sprintf("picking up %s assumes it is present in the scene", params.ItemName))

	case intent.TypeDropItem:
		held := inventoryQuantity(ch.Inventory, params.ItemName)
		if held < qty {
			v.Blocked(fmt.Sprintf("cannot drop %dx %s: inventory holds %d", qty, params.ItemName, held))
		}

	case intent.TypeGiveItem:
		held := inventoryQuantity(ch.Inventory, params.ItemName)
		if held < qty {
			v.Blocked(fmt.Sprintf("cannot give %dx %s: inventory holds %d", qty, params.ItemName, held))
			return v
		}
		recipient := strings.TrimSpace(params.Recipient)
		if recipient == "" {
			v.Warn("no recipient named; the narrator decides who receives the item")
			return v
		}
		for _, member := range vctx.Party {
			if matchesItemName(member.Name, recipient) {
				v.RecipientFound = true
				break
			}
		}
		if !v.RecipientFound {
			v.Warn(fmt.Sprintf("%s is not a known party member; the hand-off is narrated only", recipient))
		}

	case intent.TypeUseItem:
		item, found := r.catalog.ResolveItem(params.ItemName)
		held := inventoryQuantity(ch.Inventory, params.ItemName)
		if held < 1 && found {
			// "healing potion" and "Potion of Healing" are the same stack;
			// retry the lookup under the catalog's canonical name.
			held = inventoryQuantity(ch.Inventory, item.Name)
		}
		if held < 1 {
			v.Blocked(fmt.Sprintf("%s carries no %s", ch.Name, params.ItemName))
			return v
		}
		if condition, deny := hasAnyCondition(ch, actionDenyingConditions...); deny {
			v.Blocked(fmt.Sprintf("%s is %s and cannot use items", ch.Name, condition))
			return v
		}
		if found && item.Consumable {
			v.ConsumableUse = true
			v.HealNotation = item.HealNotation
		} else {
			v.Warn(fmt.Sprintf("%s is not a recognized consumable; its effect is narrated only", params.ItemName))
		}
	}
	return v
}
