package tracker

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"
	"github.com/ftchann/liquidity-tracker/lib/fullmath"
	"github.com/ftchann/liquidity-tracker/lib/pool"
)

// tickState mirrors one initialized tick boundary. The outside values are
// relative counters: they are seeded on first touch and inverted on every
// crossing, so only differences against the global accumulator mean
// anything.
type tickState struct {
	secondsOutside                  uint64
	secondsPerLiquidityOutsideX128  *ui.Int
}

// positionState is the accounting side of a pool position. It is created
// lazily on first touch and never deleted, so points survive a full burn.
type positionState struct {
	owner     common.Address
	tickLower int
	tickUpper int
	salt      [32]byte

	// X32 point score, monotonically non-decreasing
	relativeSecondsCumulativeX32     *ui.Int
	secondsPerLiquidityInsideLastX128 *ui.Int

	// claimed stream amounts keyed by keycodec.ClaimKey(token, rate)
	claimed map[common.Hash]*ui.Int
}

type streamState struct {
	creator   common.Address
	tickLower int
	tickUpper int
	token     common.Address
	rate      *ui.Int

	start     uint64
	expiry    uint64
	withdrawn *ui.Int
}

// poolState is the per-pool accounting record. All sub-maps belong to this
// pool alone.
type poolState struct {
	view View

	lastUpdate                     uint64
	secondsPerLiquidityGlobalX128  *ui.Int

	ticks     map[int]*tickState
	positions map[common.Hash]*positionState
	streams   map[common.Hash]*streamState

	// write-once read-once handoff between the simulate and verify phases
	// of a single swap
	pendingSwap *pool.BalanceDelta
}

func newPoolState(v View) *poolState {
	return &poolState{
		view:                          v,
		secondsPerLiquidityGlobalX128: new(ui.Int),
		ticks:                         make(map[int]*tickState),
		positions:                     make(map[common.Hash]*positionState),
		streams:                       make(map[common.Hash]*streamState),
	}
}

// updateClock advances the global accumulator by the elapsed time divided by
// current liquidity. Zero-liquidity intervals contribute nothing but still
// move lastUpdate forward. Calling twice at the same instant is a no-op.
func (s *poolState) updateClock(now uint64) {
	if now <= s.lastUpdate {
		return
	}
	liquidity := s.view.Liquidity()
	if !liquidity.IsZero() {
		elapsed := ui.NewInt(now - s.lastUpdate)
		s.secondsPerLiquidityGlobalX128 = fullmath.AddWrap176(
			s.secondsPerLiquidityGlobalX128,
			fullmath.MulDiv(elapsed, cons.Q128, liquidity),
		)
	}
	s.lastUpdate = now
}

// globalAdjusted returns the global accumulator as it would read after an
// updateClock at now, without mutating stored state. Read-only queries use
// it so they observe current time without racing the next mutation.
func (s *poolState) globalAdjusted(now uint64) *ui.Int {
	if now <= s.lastUpdate {
		return s.secondsPerLiquidityGlobalX128.Clone()
	}
	liquidity := s.view.Liquidity()
	if liquidity.IsZero() {
		return s.secondsPerLiquidityGlobalX128.Clone()
	}
	elapsed := ui.NewInt(now - s.lastUpdate)
	return fullmath.AddWrap176(
		s.secondsPerLiquidityGlobalX128,
		fullmath.MulDiv(elapsed, cons.Q128, liquidity),
	)
}

// lazyInit seeds a tick's outside values when its gross liquidity
// transitions from zero. Ticks at or below the current price have been
// "outside" since the pool's start, so they take the current global value;
// ticks above start at the implicit zero.
func (s *poolState) lazyInit(tick, tickCurrent int, now uint64) {
	entry := &tickState{secondsPerLiquidityOutsideX128: new(ui.Int)}
	if tick <= tickCurrent {
		entry.secondsOutside = now
		entry.secondsPerLiquidityOutsideX128.Set(s.secondsPerLiquidityGlobalX128)
	}
	s.ticks[tick] = entry
}

// cross inverts a tick's outside values as the price moves through it.
// Applying it twice restores the original, so the stored value always
// describes the side away from the current price. Ticks the accounting has
// never seen are skipped.
func (s *poolState) cross(tick int, now uint64) {
	entry, ok := s.ticks[tick]
	if !ok {
		return
	}
	entry.secondsOutside = now - entry.secondsOutside
	entry.secondsPerLiquidityOutsideX128 = fullmath.SubWrap176(
		s.secondsPerLiquidityGlobalX128, entry.secondsPerLiquidityOutsideX128)
}

func (s *poolState) tickOutside(tick int) (uint64, *ui.Int) {
	if entry, ok := s.ticks[tick]; ok {
		return entry.secondsOutside, entry.secondsPerLiquidityOutsideX128
	}
	return 0, new(ui.Int)
}

// secondsPerLiquidityInside evaluates the three-region inside formula. All
// subtractions wrap mod 2^176.
func (s *poolState) secondsPerLiquidityInside(now uint64, lower, upper int) *ui.Int {
	_, tickCurrent := s.view.Slot0()
	_, lowerOut := s.tickOutside(lower)
	_, upperOut := s.tickOutside(upper)

	switch {
	case tickCurrent < lower:
		return fullmath.SubWrap176(lowerOut, upperOut)
	case tickCurrent >= upper:
		return fullmath.SubWrap176(upperOut, lowerOut)
	default:
		global := s.globalAdjusted(now)
		return fullmath.SubWrap176(fullmath.SubWrap176(global, lowerOut), upperOut)
	}
}

// secondsInside is the plain-time analogue, with natural uint64 wrapping.
func (s *poolState) secondsInside(now uint64, lower, upper int) uint64 {
	_, tickCurrent := s.view.Slot0()
	lowerOut, _ := s.tickOutside(lower)
	upperOut, _ := s.tickOutside(upper)

	switch {
	case tickCurrent < lower:
		return lowerOut - upperOut
	case tickCurrent >= upper:
		return upperOut - lowerOut
	default:
		return now - lowerOut - upperOut
	}
}

func (s *poolState) position(owner common.Address, lower, upper int, salt [32]byte, key common.Hash) *positionState {
	if pos, ok := s.positions[key]; ok {
		return pos
	}
	pos := &positionState{
		owner:                             owner,
		tickLower:                         lower,
		tickUpper:                         upper,
		salt:                              salt,
		relativeSecondsCumulativeX32:      new(ui.Int),
		secondsPerLiquidityInsideLastX128: new(ui.Int),
		claimed:                           make(map[common.Hash]*ui.Int),
	}
	s.positions[key] = pos
	return pos
}

// secondsX32 converts a liquidity amount and an inside-accumulator delta
// into a point amount with 32 fractional bits. Dividing by Q96 instead of
// Q128 applies the precision shift.
func secondsX32(liquidity, insideDelta *ui.Int) *ui.Int {
	return fullmath.MulDiv(liquidity, insideDelta, cons.Q96)
}

// accrue folds the accumulator movement since the last snapshot into the
// position's point score. liquidity must be the position's liquidity before
// the current operation's delta.
func (p *positionState) accrue(liquidity, insideNow *ui.Int) {
	delta := fullmath.SubWrap176(insideNow, p.secondsPerLiquidityInsideLastX128)
	if !liquidity.IsZero() && !delta.IsZero() {
		p.relativeSecondsCumulativeX32.Add(p.relativeSecondsCumulativeX32, secondsX32(liquidity, delta))
	}
	p.secondsPerLiquidityInsideLastX128 = insideNow.Clone()
}

func (p *positionState) claimedFor(key common.Hash) *ui.Int {
	if c, ok := p.claimed[key]; ok {
		return c
	}
	c := new(ui.Int)
	p.claimed[key] = c
	return c
}
