package constants

import (
	ui "github.com/holiman/uint256"
)

var (
	Zero          = new(ui.Int)
	One           = new(ui.Int).SetOne()
	MaxUint256, _ = ui.FromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	// MaxUint176 masks the seconds-per-liquidity accumulators, which wrap
	// at 176 bits. Only differences of accumulator values are meaningful.
	MaxUint176 = new(ui.Int).Sub(new(ui.Int).Lsh(One, 176), One)
	MaxUint128 = new(ui.Int).Sub(new(ui.Int).Lsh(One, 128), One)

	Q32  = ui.NewInt(1 << 32)
	Q96  = new(ui.Int).Lsh(One, 96)
	Q128 = new(ui.Int).Lsh(One, 128)
	Q192 = new(ui.Int).Lsh(One, 192)

	E6  = new(ui.Int).Exp(ui.NewInt(10), ui.NewInt(6))
	E18 = new(ui.Int).Exp(ui.NewInt(10), ui.NewInt(18))
)

var TickSpaces = map[int]int{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}
