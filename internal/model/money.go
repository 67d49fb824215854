package model

import "github.com/shopspring/decimal"

// Money fields (pricePerHour, totalCost) are rendered as JSON numbers.
// Decoding accepts both numbers and quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
