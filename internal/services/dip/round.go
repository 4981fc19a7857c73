package dip

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to tell any float64 in the
// percentage range apart from the two-decimal tie next to it.
const exactDigits = 40

// Round2 rounds the exact binary value of v half to even at two decimals, so
// 2.675 (stored as 2.67499...) becomes 2.67.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		d = decimal.NewFromFloat(v)
	}
	return d.RoundBank(2).InexactFloat64()
}
