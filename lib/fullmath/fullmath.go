package fullmath

import (
	cons "github.com/ftchann/liquidity-tracker/lib/constants"

	ui "github.com/holiman/uint256"
)

func MulDivRoundingUp(a, b, denominator *ui.Int) *ui.Int {
	if a.IsZero() || b.IsZero() {
		return ui.NewInt(0)
	}
	result := MulDiv(a, b, denominator)
	rem := new(ui.Int).MulMod(a, b, denominator)
	if !rem.IsZero() {
		result.Add(result, cons.One)
	}
	return result
}

func MulDiv(a, b, denominator *ui.Int) *ui.Int {
	result, overflow := new(ui.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		panic("mulDiv overflow")
	}
	return result
}

// AddWrap176 returns (a + b) mod 2^176.
func AddWrap176(a, b *ui.Int) *ui.Int {
	return new(ui.Int).And(new(ui.Int).Add(a, b), cons.MaxUint176)
}

// SubWrap176 returns (a - b) mod 2^176. The accumulators this operates on
// are relative counters; wraparound here is intentional, and only the
// difference carries meaning.
func SubWrap176(a, b *ui.Int) *ui.Int {
	return new(ui.Int).And(new(ui.Int).Sub(a, b), cons.MaxUint176)
}
