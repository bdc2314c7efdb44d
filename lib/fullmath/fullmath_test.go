package fullmath

import (
	"fmt"
	"testing"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"

	ui "github.com/holiman/uint256"
)

func TestMulDivRoundingUp(t *testing.T) {
	tests := [][]uint64{
		{0, 500, 1000000, 0},
		{1, 500, 1000000, 1},
		{1000000, 1, 1000000, 1},
		{1000001, 1, 1000000, 2},
	}
	for _, arg := range tests {
		t.Run(fmt.Sprint(arg), func(t *testing.T) {
			result := MulDivRoundingUp(ui.NewInt(arg[0]), ui.NewInt(arg[1]), ui.NewInt(arg[2]))
			if ui.NewInt(arg[3]).Cmp(result) != 0 {
				t.Fatalf("want=%v result=%v", arg[3], result)
			}
		})
	}
}

func TestMulDivTruncates(t *testing.T) {
	// 7 * 3 / 2 = 10 (truncated)
	result := MulDiv(ui.NewInt(7), ui.NewInt(3), ui.NewInt(2))
	if !result.Eq(ui.NewInt(10)) {
		t.Fatalf("want=10 result=%v", result)
	}
}

func TestSubWrap176(t *testing.T) {
	// 0 - 1 wraps to 2^176 - 1
	result := SubWrap176(cons.Zero, cons.One)
	if result.Cmp(cons.MaxUint176) != 0 {
		t.Fatalf("want=%v result=%v", cons.MaxUint176, result)
	}

	// applying the flip twice returns the original value
	global := ui.NewInt(12345678)
	old := ui.NewInt(987)
	flipped := SubWrap176(global, old)
	back := SubWrap176(global, flipped)
	if back.Cmp(old) != 0 {
		t.Fatalf("double flip: want=%v result=%v", old, back)
	}
}

func TestAddWrap176(t *testing.T) {
	result := AddWrap176(cons.MaxUint176, cons.One)
	if !result.IsZero() {
		t.Fatalf("want=0 result=%v", result)
	}
}
