// Package pricing derives net and tax components from tax-inclusive amounts.
// Gross is always the source of truth; net and tax are computed from it and
// never stored independently of the gross they came from.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the VAT rate applied when the venue does not override it.
const DefaultTaxRate = 0.21

type Breakdown struct {
	Net   float64 `json:"net"`
	Tax   float64 `json:"tax"`
	Gross float64 `json:"gross"`
}

func Net(gross, rate float64) float64 {
	return gross / (1 + rate)
}

// Tax is gross minus net, so Net(g)+Tax(g) reproduces g.
func Tax(gross, rate float64) float64 {
	return gross - Net(gross, rate)
}

func Split(gross, rate float64) Breakdown {
	net := Net(gross, rate)
	return Breakdown{Net: net, Tax: gross - net, Gross: gross}
}

// LinePrice is the unit price of a menu item plus every selected option
// modifier, multiplied by quantity.
func LinePrice(base float64, modifiers []float64, quantity int) float64 {
	unit := base
	for _, m := range modifiers {
		unit += m
	}
	return unit * float64(quantity)
}

// Discounted applies a percentage discount clamped to [0, 100].
func Discounted(amount, percent float64) float64 {
	return amount * (1 - ClampPercent(percent)/100)
}

func ClampPercent(percent float64) float64 {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Cents converts an amount to integer cents using half-away-from-zero rounding.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}

// SumEqualsCents reports whether the parts add up to total once everything is
// rounded to the cent.
func SumEqualsCents(total float64, parts ...float64) bool {
	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(decimal.NewFromFloat(p).Round(2))
	}
	return sum.Equal(decimal.NewFromFloat(total).Round(2))
}

// Sum adds amounts in decimal space and returns the float result, avoiding
// drift when many cent-valued amounts are accumulated.
func Sum(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum.InexactFloat64()
}
