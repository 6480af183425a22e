package mechanics

import (
	"strconv"

	"github.com/louisbranch/turnforge/internal/storage"
)

// Copper values of each denomination.
const (
	CopperValue   = 1
	SilverValue   = 10
	ElectrumValue = 50
	GoldValue     = 100
	PlatinumValue = 1000
)

// CoinBreakdown counts the coins handed over to settle a cost.
type CoinBreakdown struct {
	Copper   int `json:"cp"`
	Silver   int `json:"sp"`
	Electrum int `json:"ep"`
	Gold     int `json:"gp"`
	Platinum int `json:"pp"`
}

// TotalCp sums a breakdown to its copper value.
func (b CoinBreakdown) TotalCp() int {
	return b.Copper*CopperValue +
		b.Silver*SilverValue +
		b.Electrum*ElectrumValue +
		b.Gold*GoldValue +
		b.Platinum*PlatinumValue
}

// IsZero reports whether no coins are in the breakdown.
func (b CoinBreakdown) IsZero() bool {
	return b == CoinBreakdown{}
}

// WealthCp sums a character's purse to its copper value.
func WealthCp(c storage.Currency) int {
	return c.Copper*CopperValue +
		c.Silver*SilverValue +
		c.Electrum*ElectrumValue +
		c.Gold*GoldValue +
		c.Platinum*PlatinumValue
}

// MakeBreakdown computes the coins to hand over for costCp, greedily
// consuming the highest-value denominations first (pp, gp, ep, sp, cp).
//
// When exact change is impossible the payer overpays with the smallest coins
// that cover the remainder; changeCp is the copper owed back. The invariant
// breakdown.TotalCp() - changeCp == costCp holds whenever ok is true, so the
// net debit is always exact. ok is false when held wealth cannot cover the
// cost at all.
func MakeBreakdown(costCp int, held storage.Currency) (breakdown CoinBreakdown, changeCp int, ok bool) {
	if costCp <= 0 {
		return CoinBreakdown{}, 0, true
	}
	if WealthCp(held) < costCp {
		return CoinBreakdown{}, 0, false
	}

	remaining := costCp

	take := func(avail *int, value int, out *int) {
		if remaining <= 0 || *avail == 0 {
			return
		}
		n := remaining / value
		if n > *avail {
			n = *avail
		}
		*out += n
		*avail -= n
		remaining -= n * value
	}

	take(&held.Platinum, PlatinumValue, &breakdown.Platinum)
	take(&held.Gold, GoldValue, &breakdown.Gold)
	take(&held.Electrum, ElectrumValue, &breakdown.Electrum)
	take(&held.Silver, SilverValue, &breakdown.Silver)
	take(&held.Copper, CopperValue, &breakdown.Copper)

	// No coin combination settled the cost exactly; overpay with the
	// smallest remaining coins and owe the difference back as change.
	overpay := func(avail *int, value int, out *int) {
		for remaining > 0 && *avail > 0 {
			*out++
			*avail--
			remaining -= value
		}
	}
	overpay(&held.Copper, CopperValue, &breakdown.Copper)
	overpay(&held.Silver, SilverValue, &breakdown.Silver)
	overpay(&held.Electrum, ElectrumValue, &breakdown.Electrum)
	overpay(&held.Gold, GoldValue, &breakdown.Gold)
	overpay(&held.Platinum, PlatinumValue, &breakdown.Platinum)

	if remaining > 0 {
		return CoinBreakdown{}, 0, false
	}
	return breakdown, -remaining, true
}

// Debit removes the breakdown coins from a purse and credits any change
// back as copper. It assumes the breakdown was computed against this purse.
func Debit(c storage.Currency, b CoinBreakdown, changeCp int) storage.Currency {
	c.Copper -= b.Copper
	c.Silver -= b.Silver
	c.Electrum -= b.Electrum
	c.Gold -= b.Gold
	c.Platinum -= b.Platinum
	c.Copper += changeCp
	return c
}

// CreditCp adds a copper amount to a purse as gold, silver, and copper.
func CreditCp(c storage.Currency, amountCp int) storage.Currency {
	if amountCp <= 0 {
		return c
	}
	c.Gold += amountCp / GoldValue
	amountCp %= GoldValue
	c.Silver += amountCp / SilverValue
	c.Copper += amountCp % SilverValue
	return c
}

// FormatCp renders a copper amount as a readable coin string.
func FormatCp(amountCp int) string {
	gp := amountCp / GoldValue
	sp := (amountCp % GoldValue) / SilverValue
	cp := amountCp % SilverValue

	out := ""
	if gp > 0 {
		out += strconv.Itoa(gp) + " gp"
	}
	if sp > 0 {
		if out != "" {
			out += " "
		}
		out += strconv.Itoa(sp) + " sp"
	}
	if cp > 0 || out == "" {
		if out != "" {
			out += " "
		}
		out += strconv.Itoa(cp) + " cp"
	}
	return out
}
