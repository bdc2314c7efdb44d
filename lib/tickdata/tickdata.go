package tickdata

import (
	"sort"

	ui "github.com/holiman/uint256"
)

// Tick carries the liquidity bookkeeping for one initialized tick boundary.
// LiquidityGross is the total liquidity referencing this tick; LiquidityNet
// is the signed amount added when the price crosses it left to right.
type Tick struct {
	Index          int
	LiquidityNet   *ui.Int
	LiquidityGross *ui.Int
}

// TickData keeps initialized ticks in a sorted slice. The tick count for a
// single pool is small enough that binary search beats a bitmap here, but
// the word-bounded search semantics of the bitmap are preserved.
type TickData struct {
	ticks       []Tick
	tickSpacing int
}

func NewTickData(tickSpacing int) *TickData {
	return &TickData{nil, tickSpacing}
}

func (t *TickData) Clone() *TickData {
	n := &TickData{
		ticks:       make([]Tick, len(t.ticks)),
		tickSpacing: t.tickSpacing,
	}
	for i, tk := range t.ticks {
		n.ticks[i] = Tick{tk.Index, tk.LiquidityNet.Clone(), tk.LiquidityGross.Clone()}
	}
	return n
}

func (t *TickData) TickSpacing() int {
	return t.tickSpacing
}

// GetTick returns the tick entry at index, if initialized.
func (t *TickData) GetTick(index int) (Tick, bool) {
	i := sort.Search(len(t.ticks), func(i int) bool { return t.ticks[i].Index >= index })
	if i < len(t.ticks) && t.ticks[i].Index == index {
		return t.ticks[i], true
	}
	return Tick{}, false
}

// Update applies a signed liquidity delta to the tick at index. upper ticks
// carry the negated delta in LiquidityNet. When gross liquidity drops to
// zero the tick is removed from the book.
func (t *TickData) Update(index int, liquidityDelta *ui.Int, upper bool) {
	i := sort.Search(len(t.ticks), func(i int) bool { return t.ticks[i].Index >= index })

	if i < len(t.ticks) && t.ticks[i].Index == index {
		tick := t.ticks[i]
		if upper {
			tick.LiquidityNet.Sub(tick.LiquidityNet, liquidityDelta)
		} else {
			tick.LiquidityNet.Add(tick.LiquidityNet, liquidityDelta)
		}
		tick.LiquidityGross.Add(tick.LiquidityGross, liquidityDelta)
		if tick.LiquidityGross.IsZero() {
			t.ticks = append(t.ticks[:i], t.ticks[i+1:]...)
		}
		return
	}

	net := new(ui.Int)
	if upper {
		net.Neg(liquidityDelta)
	} else {
		net.Set(liquidityDelta)
	}
	tick := Tick{index, net, new(ui.Int).Set(liquidityDelta)}
	t.ticks = append(t.ticks, Tick{})
	copy(t.ticks[i+1:], t.ticks[i:])
	t.ticks[i] = tick
}

// Cross returns the net liquidity of the tick being crossed. The caller
// applies the direction-dependent sign.
func (t *TickData) Cross(index int) *ui.Int {
	tick, ok := t.GetTick(index)
	if !ok {
		return new(ui.Int)
	}
	return tick.LiquidityNet.Clone()
}

func (t *TickData) isBelowSmallest(tick int) bool {
	return len(t.ticks) == 0 || tick < t.ticks[0].Index
}

func (t *TickData) isAtOrAboveLargest(tick int) bool {
	return len(t.ticks) == 0 || tick >= t.ticks[len(t.ticks)-1].Index
}

// NextInitializedTickWithinOneWord returns the next initialized tick in the
// search direction, clamped to the same 256-tick word, and whether the
// returned tick is initialized. lte searches leftward (towards lower ticks).
func (t *TickData) NextInitializedTickWithinOneWord(tick int, lte bool) (int, bool) {
	compressed := tick / t.tickSpacing
	// floor towards negative infinity, matching the bitmap's word layout
	if tick < 0 && tick%t.tickSpacing != 0 {
		compressed--
	}
	if lte {
		wordPos := compressed >> 8
		minimum := (wordPos << 8) * t.tickSpacing
		if t.isBelowSmallest(tick) {
			return minimum, false
		}
		index := t.nextInitializedTick(tick, lte).Index
		next := max(minimum, index)
		return next, next == index
	}

	wordPos := (compressed + 1) >> 8
	maximum := (((wordPos + 1) << 8) - 1) * t.tickSpacing
	if t.isAtOrAboveLargest(tick) {
		return maximum, false
	}
	index := t.nextInitializedTick(tick, lte).Index
	next := min(maximum, index)
	return next, next == index
}

// nextInitializedTick returns the closest initialized tick at or below tick
// (lte) or strictly above it. Callers must rule out the out-of-book cases
// first.
func (t *TickData) nextInitializedTick(tick int, lte bool) Tick {
	// index of the first tick strictly above tick
	i := sort.Search(len(t.ticks), func(i int) bool { return t.ticks[i].Index > tick })
	if lte {
		return t.ticks[i-1]
	}
	if i == len(t.ticks) {
		return t.ticks[len(t.ticks)-1]
	}
	return t.ticks[i]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
