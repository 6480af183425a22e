package validate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/storage"
)

// defaultSalePriceCp is credited for selling inventory the catalog has never
// heard of.
const defaultSalePriceCp = 50

// sellPricePercent is the fraction of catalog price paid out on a sale.
const sellPricePercent = 50

func (r *Router) validateEconomic(ci intent.Classified, vctx Context) mechanics.Validation {
	var v mechanics.Validation

	params, ok := ci.Params.(intent.PurchaseParams)
	if !ok {
		v.Blocked("economic intent carried no purchase parameters")
		return v
	}

	switch ci.Type {
	case intent.TypePurchase:
		r.validatePurchase(&v, params, vctx)
	case intent.TypeSell:
		r.validateSell(&v, params, vctx)
	case intent.TypePay:
		r.validatePay(&v, params, vctx)
	case intent.TypeSteal:
		// Structurally always valid; theft is decided by a skill check,
		// so no state change is computed here.
		v.Warn("theft requires a Sleight of Hand check before anything changes hands")
	case intent.TypeTrade:
		v.Warn("trades between characters need narrator adjudication of the exchange")
	}
	return v
}

func (r *Router) validatePurchase(v *mechanics.Validation, params intent.PurchaseParams, vctx Context) {
	if len(params.Items) == 0 {
		v.Blocked("purchase names no items")
		return
	}

	total := 0
	for _, req := range params.Items {
		qty := req.Quantity
		if qty <= 0 {
			qty = 1
		}

		item, found := r.catalog.ResolveItem(req.Name)
		switch {
		case found:
			v.Lines = append(v.Lines, mechanics.PurchaseLine{
				Name:        item.Name,
				Quantity:    qty,
				UnitPriceCp: item.PriceCp,
			})
			total += item.PriceCp * qty
		case req.EstimatedPriceCp > 0:
			price := req.EstimatedPriceCp
			if price > intent.PriceCeilingCp {
				price = intent.PriceCeilingCp
			}
			v.Lines = append(v.Lines, mechanics.PurchaseLine{
				Name:        req.Name,
				Quantity:    qty,
				UnitPriceCp: price,
				Estimated:   true,
			})
			v.Warn(fmt.Sprintf("%s is not in the price catalog; using estimated price %s", req.Name, mechanics.FormatCp(price)))
			total += price * qty
		default:
			v.Blocked(fmt.Sprintf("unknown item %q: no catalog entry and no price estimate", req.Name))
		}
	}
	if !v.Valid() {
		return
	}

	v.TotalCostCp = total
	wealth := mechanics.WealthCp(vctx.Character.Currency)
	if total > wealth {
		v.Blocked(fmt.Sprintf("cost %s exceeds carried wealth %s", mechanics.FormatCp(total), mechanics.FormatCp(wealth)))
		return
	}

	breakdown, changeCp, ok := mechanics.MakeBreakdown(total, vctx.Character.Currency)
	if !ok {
		v.Blocked(fmt.Sprintf("cannot assemble %s from carried coins", mechanics.FormatCp(total)))
		return
	}
	v.Breakdown = breakdown
	v.ChangeCp = changeCp
}

func (r *Router) validateSell(v *mechanics.Validation, params intent.PurchaseParams, vctx Context) {
	if len(params.Items) == 0 {
		v.Blocked("sale names no items")
		return
	}

	total := 0
	for _, req := range params.Items {
		qty := req.Quantity
		if qty <= 0 {
			qty = 1
		}

		held := inventoryQuantity(vctx.Character.Inventory, req.Name)
		if held < qty {
			v.Blocked(fmt.Sprintf("cannot sell %dx %s: inventory holds %d", qty, req.Name, held))
			continue
		}

		unit := defaultSalePriceCp
		if item, found := r.catalog.ResolveItem(req.Name); found {
			unit = item.PriceCp * sellPricePercent / 100
		} else {
			v.Warn(fmt.Sprintf("%s has no catalog price; selling at the default rate", req.Name))
		}
		total += unit * qty
	}
	if !v.Valid() {
		return
	}
	v.SalePriceCp = total
}

func (r *Router) validatePay(v *mechanics.Validation, params intent.PurchaseParams, vctx Context) {
	if params.AmountCp <= 0 {
		v.Blocked("payment names no positive amount")
		return
	}

	v.TotalCostCp = params.AmountCp
	wealth := mechanics.WealthCp(vctx.Character.Currency)
	if params.AmountCp > wealth {
		v.Blocked(fmt.Sprintf("payment %s exceeds carried wealth %s", mechanics.FormatCp(params.AmountCp), mechanics.FormatCp(wealth)))
		return
	}

	breakdown, changeCp, ok := mechanics.MakeBreakdown(params.AmountCp, vctx.Character.Currency)
	if !ok {
		v.Blocked(fmt.Sprintf("cannot assemble %s from carried coins", mechanics.FormatCp(params.AmountCp)))
		return
	}
	v.Breakdown = breakdown
	v.ChangeCp = changeCp
}

// inventoryQuantity sums held quantity across stacks whose names match.
func inventoryQuantity(inventory []storage.InventoryItem, name string) int {
	total := 0
	for _, stack := range inventory {
		if matchesItemName(stack.Name, name) {
			total += stack.Quantity
		}
	}
	return total
}

// matchesItemName reports whether a held stack matches the requested name,
// by case-insensitive equality or substring in either direction.
func matchesItemName(held, requested string) bool {
	h := strings.ToLower(strings.TrimSpace(held))
	r := strings.ToLower(strings.TrimSpace(requested))
	if h == "" || r == "" {
		return false
	}
	return h == r || strings.Contains(h, r) || strings.Contains(r, h)
}
