package execute

import (
	"context"
	"fmt"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

func (r *Router) executeEconomic(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	switch ci.Type {
	case intent.TypePurchase:
		return r.executePurchase(ctx, ci, v)
	case intent.TypeSell:
		return r.executeSell(ctx, ci, v)
	case intent.TypePay:
		return r.executePay(ctx, ci, v)
	case intent.TypeSteal:
		return r.executeSteal(ci)
	default: // trade
		return mechanics.Result{
			Success:          true,
			Outcome:          mechanics.OutcomeSuccess,
			NarrativeContext: "the trade is narrated; no coin changes hands until both sides agree on terms",
		}, nil
	}
}

// executePurchase debits the validated coin breakdown and adds the purchased
// items to inventory. The wealth check reruns against the freshest record:
// a concurrent turn may have spent the coins since validation.
func (r *Router) executePurchase(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	reason := fmt.Sprintf("purchase: %s", describeLines(v.Lines))
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, reason, func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		if mechanics.WealthCp(ch.Currency) < v.TotalCostCp {
			return nil, failMechanically("%s can no longer afford %s", ch.Name, mechanics.FormatCp(v.TotalCostCp))
		}

		// The validated breakdown may be stale against the fresh purse;
		// reassemble when it no longer fits.
		breakdown, changeCp := v.Breakdown, v.ChangeCp
		if !breakdownFits(ch.Currency, breakdown) {
			var ok bool
			breakdown, changeCp, ok = mechanics.MakeBreakdown(v.TotalCostCp, ch.Currency)
			if !ok {
				return nil, failMechanically("%s cannot assemble %s from carried coins", ch.Name, mechanics.FormatCp(v.TotalCostCp))
			}
		}

		before := ch.Currency
		ch.Currency = mechanics.Debit(ch.Currency, breakdown, changeCp)

		changes := []mechanics.StateChange{currencyChange(ch, before, ch.Currency, reason)}
		for _, line := range v.Lines {
			prev := inventoryCount(ch.Inventory, line.Name)
			ch.Inventory = addInventory(ch.Inventory, line.Name, line.Quantity)
			changes = append(changes, inventoryChange(ch, line.Name, prev, prev+line.Quantity,
				fmt.Sprintf("bought %dx %s", line.Quantity, line.Name)))
		}
		return changes, nil
	})
	narrative := fmt.Sprintf("%s pays %s for %s", ci.CharacterName, mechanics.FormatCp(v.TotalCostCp), describeLines(v.Lines))
	return resultFor(changes, narrative, err)
}

// executeSell removes the sold items and credits the validated sale price,
// decomposed into gold, silver, and copper.
func (r *Router) executeSell(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	params, ok := ci.Params.(intent.PurchaseParams)
	if !ok {
		return mechanics.Result{}, fmt.Errorf("sell intent carries %T params", ci.Params)
	}

	reason := fmt.Sprintf("sale for %s", mechanics.FormatCp(v.SalePriceCp))
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, reason, func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		var changes []mechanics.StateChange
		for _, req := range params.Items {
			qty := req.Quantity
			if qty <= 0 {
				qty = 1
			}
			prev := inventoryCount(ch.Inventory, req.Name)
			if prev < qty {
				return nil, failMechanically("%s no longer holds %dx %s", ch.Name, qty, req.Name)
			}
			ch.Inventory = removeInventory(ch.Inventory, req.Name, qty)
			changes = append(changes, inventoryChange(ch, req.Name, prev, prev-qty,
				fmt.Sprintf("sold %dx %s", qty, req.Name)))
		}

		before := ch.Currency
		ch.Currency = mechanics.CreditCp(ch.Currency, v.SalePriceCp)
		changes = append(changes, currencyChange(ch, before, ch.Currency, reason))
		return changes, nil
	})
	narrative := fmt.Sprintf("%s sells for %s", ci.CharacterName, mechanics.FormatCp(v.SalePriceCp))
	return resultFor(changes, narrative, err)
}

func (r *Router) executePay(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	reason := fmt.Sprintf("payment of %s", mechanics.FormatCp(v.TotalCostCp))
	changes, err := r.mutateCharacter(ctx, ci.CharacterID, reason, func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error) {
		if mechanics.WealthCp(ch.Currency) < v.TotalCostCp {
			return nil, failMechanically("%s can no longer cover the %s payment", ch.Name, mechanics.FormatCp(v.TotalCostCp))
		}
		breakdown, changeCp := v.Breakdown, v.ChangeCp
		if !breakdownFits(ch.Currency, breakdown) {
			var ok bool
			breakdown, changeCp, ok = mechanics.MakeBreakdown(v.TotalCostCp, ch.Currency)
			if !ok {
				return nil, failMechanically("%s cannot assemble %s from carried coins", ch.Name, mechanics.FormatCp(v.TotalCostCp))
			}
		}
		before := ch.Currency
		ch.Currency = mechanics.Debit(ch.Currency, breakdown, changeCp)
		return []mechanics.StateChange{currencyChange(ch, before, ch.Currency, reason)}, nil
	})
	narrative := fmt.Sprintf("%s hands over %s", ci.CharacterName, mechanics.FormatCp(v.TotalCostCp))
	return resultFor(changes, narrative, err)
}

// executeSteal mutates nothing up front: the theft hinges on a Sleight of
// Hand check the dice subsystem resolves later.
func (r *Router) executeSteal(ci intent.Classified) (mechanics.Result, error) {
	return mechanics.Result{
		Success:          true,
		Outcome:          mechanics.OutcomePartial,
		NarrativeContext: fmt.Sprintf("%s attempts the theft; the outcome rides on the check", ci.CharacterName),
		RollsRequired: []mechanics.DiceRollRequest{{
			CharacterID: ci.CharacterID,
			RollType:    "skill_check",
			Notation:    "1d20",
			Description: "Sleight of Hand check to lift the goods unnoticed",
			Reason:      "steal attempt",
			Skill:       "Sleight of Hand",
			Ability:     "dexterity",
		}},
	}, nil
}

func describeLines(lines []mechanics.PurchaseLine) string {
	if len(lines) == 0 {
		return "goods"
	}
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%dx %s", line.Quantity, line.Name)
	}
	return out
}

func breakdownFits(purse storage.Currency, b mechanics.CoinBreakdown) bool {
	if b.IsZero() {
		return false
	}
	return purse.Copper >= b.Copper &&
		purse.Silver >= b.Silver &&
		purse.Electrum >= b.Electrum &&
		purse.Gold >= b.Gold &&
		purse.Platinum >= b.Platinum
}

func currencyChange(ch *storage.CharacterRecord, before, after storage.Currency, desc string) mechanics.StateChange {
	return mechanics.StateChange{
		Type:          mechanics.ChangeCurrency,
		CharacterID:   ch.ID,
		CharacterName: ch.Name,
		Description:   desc,
		Field:         "currency",
		Before:        mechanics.FormatCp(mechanics.WealthCp(before)),
		After:         mechanics.FormatCp(mechanics.WealthCp(after)),
	}
}

func inventoryChange(ch *storage.CharacterRecord, item string, before, after int, desc string) mechanics.StateChange {
	return mechanics.StateChange{
		Type:          mechanics.ChangeInventory,
		CharacterID:   ch.ID,
		CharacterName: ch.Name,
		Description:   desc,
		Field:         item,
		Before:        itoa(before),
		After:         itoa(after),
	}
}

func inventoryCount(inv []storage.InventoryItem, name string) int {
	for _, stack := range inv {
		if sameItem(stack.Name, name) {
			return stack.Quantity
		}
	}
	return 0
}

func addInventory(inv []storage.InventoryItem, name string, qty int) []storage.InventoryItem {
	for i, stack := range inv {
		if sameItem(stack.Name, name) {
			inv[i].Quantity += qty
			return inv
		}
	}
	return append(inv, storage.InventoryItem{Name: name, Quantity: qty})
}

func removeInventory(inv []storage.InventoryItem, name string, qty int) []storage.InventoryItem {
	for i, stack := range inv {
		if !sameItem(stack.Name, name) {
			continue
		}
		if stack.Quantity > qty {
			inv[i].Quantity -= qty
			return inv
		}
		return append(inv[:i], inv[i+1:]...)
	}
	return inv
}
