package order

import (
	"math"

	"github.com/cafetab/cafetab/internal/catalog"
)

// Flat per-unit surcharges, in the same currency unit as offering base prices.
const (
	ColdSurcharge      = 20.0
	ExtraShotSurcharge = 30.0
	OatMilkSurcharge   = 40.0
)

// UnitPrice computes the charged per-unit price for an offering with the
// selected customizations. The cold surcharge applies only when iced is a
// choice: offerings that are iced-only (or have no temperature choice at all)
// already price it into the base.
func UnitPrice(off *catalog.Offering, temperature string, extraShot, oatMilk bool) float64 {
	price := off.BasePrice
	if temperature == catalog.TempIced && off.Temperature == catalog.TempBoth {
		price += ColdSurcharge
	}
	if extraShot {
		price += ExtraShotSurcharge
	}
	if oatMilk {
		price += OatMilkSurcharge
	}
	return price
}

// RoundMoney normalizes float accumulation drift on totals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
