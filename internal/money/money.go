// Package money formats integer minor-unit amounts for API responses.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
}

// exponents maps currencies whose minor unit is not the usual 2 decimals.
var exponents = map[string]int32{
	"jpy": 0,
	"krw": 0,
}

// Display renders a minor-unit amount with its currency, e.g. Display(500,
// "usd") == "$5.00" and Display(500, "jpy") == "¥500". Unknown currencies
// fall back to an uppercase code prefix. decimal keeps the shift exact; no
// float conversion happens.
func Display(minor int64, currencyCode string) string {
	code := strings.ToLower(currencyCode)
	exp, ok := exponents[code]
	if !ok {
		exp = 2
	}
	amount := decimal.NewFromInt(minor).Shift(-exp).StringFixed(exp)
	if sym, ok := symbols[code]; ok {
		return sym + amount
	}
	if code == "" {
		return amount
	}
	return strings.ToUpper(code) + " " + amount
}
