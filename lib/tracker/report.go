package tracker

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	"github.com/ftchann/liquidity-tracker/lib/fullmath"
	"github.com/ftchann/liquidity-tracker/lib/keycodec"
)

// SecondsInside reports how many seconds the price has spent inside
// [lower, upper). The value only carries meaning once both boundary ticks
// have been initialized.
func (t *Tracker) SecondsInside(poolID common.Hash, lower, upper int) (uint64, error) {
	s, err := t.state(poolID)
	if err != nil {
		return 0, err
	}
	return s.secondsInside(t.clk.Now(), lower, upper), nil
}

// SecondsPerLiquidityInside reports the liquidity-normalized inside
// accumulator for [lower, upper). Stored state is not mutated; the global
// accumulator is advanced in memory to now.
func (t *Tracker) SecondsPerLiquidityInside(poolID common.Hash, lower, upper int) (*ui.Int, error) {
	s, err := t.state(poolID)
	if err != nil {
		return nil, err
	}
	return s.secondsPerLiquidityInside(t.clk.Now(), lower, upper), nil
}

// PositionReport is the refresh-then-read view of one position: its point
// total as of now and what a claim against (token, rate) would pay out.
type PositionReport struct {
	PointsX32 *ui.Int
	Unclaimed *ui.Int
}

// PositionReport refreshes a position's point total in memory and derives
// the unclaimed stream amount for (token, rate), without mutating stored
// state. Unknown positions report zeroes.
func (t *Tracker) PositionReport(poolID common.Hash, owner common.Address, lower, upper int, salt [32]byte, token common.Address, rate *ui.Int) (PositionReport, error) {
	s, err := t.state(poolID)
	if err != nil {
		return PositionReport{}, err
	}
	now := t.clk.Now()

	report := PositionReport{PointsX32: new(ui.Int), Unclaimed: new(ui.Int)}
	key := keycodec.PositionKey(owner, lower, upper, salt)
	pos, ok := s.positions[key]
	if !ok {
		return report, nil
	}

	inside := s.secondsPerLiquidityInside(now, lower, upper)
	liquidity := s.view.PositionLiquidity(owner, lower, upper, salt)
	report.PointsX32.Set(pos.relativeSecondsCumulativeX32)
	delta := fullmath.SubWrap176(inside, pos.secondsPerLiquidityInsideLastX128)
	if !liquidity.IsZero() && !delta.IsZero() {
		report.PointsX32.Add(report.PointsX32, secondsX32(liquidity, delta))
	}

	// evaluate the claim against the refreshed points without touching the
	// stored entry
	refreshed := &positionState{
		tickLower:                    lower,
		tickUpper:                    upper,
		relativeSecondsCumulativeX32: report.PointsX32,
	}
	share := new(ui.Int)
	for _, st := range s.matchingStreams(lower, upper, token, rate) {
		share.Add(share, s.calculateShare(refreshed, st, now))
	}
	claimed := new(ui.Int)
	if c, ok := pos.claimed[keycodec.ClaimKey(token, rate)]; ok {
		claimed.Set(c)
	}
	if share.Gt(claimed) {
		report.Unclaimed.Sub(share, claimed)
	}
	return report, nil
}
