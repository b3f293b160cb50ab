package enums

import (
	"slices"
	"strings"
)

// Currency is a denomination prices can be created in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

var currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return slices.Contains(currencies, c) }

// ProcessorCode is the lowercase ISO code used on the processor's API.
func (c Currency) ProcessorCode() string {
	return strings.ToLower(string(c))
}

// ParseCurrency accepts any case.
func ParseCurrency(value string) (Currency, error) {
	return parse("currency", value, currencies, upper)
}
