// Package util provides display formatting helpers for the supermarket system.
package util

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"supermercado/domain"
)

var printer = message.NewPrinter(language.Spanish)

// Money renders a whole-unit currency amount with locale grouping, e.g.
// "$15.000". The currency has no sub-unit; totals reach this function already
// rounded.
func Money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprintf("$%v", number.Decimal(f, number.MaxFractionDigits(0)))
}

// Quantity renders a stock amount with its unit, e.g. "20.5 kg" or
// "30 unidades".
func Quantity(q decimal.Decimal, u domain.Unit) string {
	name := u.Name
	if u.Abbreviation != "" {
		name = u.Abbreviation
	}
	return q.String() + " " + name
}
