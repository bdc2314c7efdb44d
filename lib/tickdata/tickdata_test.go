package tickdata

import (
	"testing"

	ui "github.com/holiman/uint256"
)

func TestUpdateAndGetTick(t *testing.T) {
	td := NewTickData(10)
	td.Update(-1200, ui.NewInt(100), false)
	td.Update(1200, ui.NewInt(100), true)
	td.Update(-3000, ui.NewInt(30), false)

	tick, ok := td.GetTick(-1200)
	if !ok {
		t.Fatal("tick -1200 should be initialized")
	}
	if !tick.LiquidityGross.Eq(ui.NewInt(100)) {
		t.Fatalf("gross = %v", tick.LiquidityGross)
	}
	if !tick.LiquidityNet.Eq(ui.NewInt(100)) {
		t.Fatalf("net = %v", tick.LiquidityNet)
	}

	upper, ok := td.GetTick(1200)
	if !ok {
		t.Fatal("tick 1200 should be initialized")
	}
	if upper.LiquidityNet.Sign() != -1 {
		t.Fatalf("upper net should be negative, got %v", upper.LiquidityNet)
	}

	if _, ok := td.GetTick(0); ok {
		t.Fatal("tick 0 must not be initialized")
	}
}

func TestUpdateRemovesEmptiedTick(t *testing.T) {
	td := NewTickData(10)
	td.Update(500, ui.NewInt(42), false)
	td.Update(500, new(ui.Int).Neg(ui.NewInt(42)), false)
	if _, ok := td.GetTick(500); ok {
		t.Fatal("tick with zero gross liquidity must be removed")
	}
}

func TestNextInitializedTickWithinOneWord(t *testing.T) {
	td := NewTickData(10)
	td.Update(-1200, ui.NewInt(1), false)
	td.Update(1200, ui.NewInt(1), true)

	// leftward from 0 clamps to the word boundary; -1200 lives in the word below
	next, ok := td.NextInitializedTickWithinOneWord(0, true)
	if ok || next != 0 {
		t.Fatalf("lte search from 0: next=%d ok=%v", next, ok)
	}

	// leftward from -1 lands in the lower word and finds -1200
	next, ok = td.NextInitializedTickWithinOneWord(-1, true)
	if !ok || next != -1200 {
		t.Fatalf("lte search from -1: next=%d ok=%v", next, ok)
	}

	// rightward from 0 finds 1200
	next, ok = td.NextInitializedTickWithinOneWord(0, false)
	if !ok || next != 1200 {
		t.Fatalf("gt search: next=%d ok=%v", next, ok)
	}

	// leftward below the smallest tick hits the word boundary, uninitialized
	next, ok = td.NextInitializedTickWithinOneWord(-2000, true)
	if ok {
		t.Fatalf("expected uninitialized boundary, got tick %d", next)
	}
}

func TestNextInitializedTickEmptyBook(t *testing.T) {
	td := NewTickData(60)
	if _, ok := td.NextInitializedTickWithinOneWord(0, true); ok {
		t.Fatal("empty book must not report initialized ticks")
	}
	if _, ok := td.NextInitializedTickWithinOneWord(0, false); ok {
		t.Fatal("empty book must not report initialized ticks")
	}
}

func TestCross(t *testing.T) {
	td := NewTickData(10)
	td.Update(-1200, ui.NewInt(77), false)
	net := td.Cross(-1200)
	if !net.Eq(ui.NewInt(77)) {
		t.Fatalf("cross net = %v", net)
	}
	// crossing an unknown tick yields zero net
	if !td.Cross(40).IsZero() {
		t.Fatal("unknown tick net must be zero")
	}
}
