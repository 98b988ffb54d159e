package bidding

import "github.com/shopspring/decimal"

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// DisplayValue turns a multiplier into a signed fraction: 0.75 becomes -0.25,
// 1.3 becomes 0.3. Values just above 1 collapse to zero.
func DisplayValue(modifier float64) decimal.Decimal {
	m := decimal.NewFromFloat(modifier)
	switch {
	case modifier < 1:
		return one.Sub(m).Neg()
	case modifier > 0.99 && modifier < 1.01:
		return decimal.Zero
	default:
		return m.Sub(one)
	}
}

// SheetValue is the display value rounded to two decimals, as written to the
// reporting sheet.
func SheetValue(modifier float64) float64 {
	value, _ := roundHalfUp(DisplayValue(modifier), 2).Float64()
	return value
}

// LogPercent is the display value as a whole signed percentage.
func LogPercent(modifier float64) int64 {
	return roundHalfUp(DisplayValue(modifier).Shift(2), 0).IntPart()
}

// roundHalfUp rounds ties toward positive infinity, so -24.5 becomes -24.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}
