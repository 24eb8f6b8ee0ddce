package checkout

import "github.com/shopspring/decimal"

func decimalOf(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
