// Package tracker is the time-weighted liquidity accounting core. It hangs
// off the pool's hook points: every liquidity mutation and swap first
// advances the pool clock, swaps are simulated ahead of execution to observe
// tick crossings, and position point scores accrue from the per-tick
// accumulators. A stream ledger distributes creator-funded token rewards in
// proportion to those points.
package tracker

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/ftchann/liquidity-tracker/lib/clock"
	"github.com/ftchann/liquidity-tracker/lib/invariant"
	"github.com/ftchann/liquidity-tracker/lib/keycodec"
	"github.com/ftchann/liquidity-tracker/lib/pool"
	"github.com/ftchann/liquidity-tracker/lib/swapsim"
	"github.com/ftchann/liquidity-tracker/lib/vault"
)

var (
	ErrUnknownPool    = errors.New("tracker: unknown pool")
	ErrMalformedClaim = errors.New("tracker: malformed claim payload")
	ErrZeroRate       = errors.New("tracker: stream rate is zero")
	ErrZeroDuration   = errors.New("tracker: stream duration is zero")
	ErrStreamOverflow = errors.New("tracker: stream funding exceeds 128 bits")
	ErrStreamNotFound = errors.New("tracker: stream not found")
	ErrStreamExpired  = errors.New("tracker: stream already expired")
)

// View is the read-only pool surface the tracker consumes. *pool.Pool
// satisfies it.
type View interface {
	swapsim.View
	ID() common.Hash
	PositionLiquidity(owner common.Address, lower, upper int, salt [32]byte) *ui.Int
}

// Tracker implements pool.Hooks and owns one accounting record per pool.
type Tracker struct {
	clk   clock.Clock
	vault *vault.Vault
	log   *zap.Logger
	pools map[common.Hash]*poolState
}

func New(clk clock.Clock, v *vault.Vault, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		clk:   clk,
		vault: v,
		log:   log,
		pools: make(map[common.Hash]*poolState),
	}
}

// RegisterPool makes the tracker aware of a pool ahead of its first hook
// call. Hooks register lazily, so calling this is optional.
func (t *Tracker) RegisterPool(v View) {
	t.statefor(v)
}

func (t *Tracker) statefor(v View) *poolState {
	s, ok := t.pools[v.ID()]
	if !ok {
		s = newPoolState(v)
		s.lastUpdate = t.clk.Now()
		t.pools[v.ID()] = s
		t.log.Debug("pool registered", zap.Stringer("pool", v.ID()))
	}
	return s
}

func (t *Tracker) state(id common.Hash) (*poolState, error) {
	s, ok := t.pools[id]
	if !ok {
		return nil, ErrUnknownPool
	}
	return s, nil
}

// BeforeModifyLiquidity runs ahead of any mint, burn or touch. It advances
// the clock, seeds boundary ticks whose gross liquidity is about to leave
// zero, accrues the position's points against its pre-operation liquidity,
// and settles a stream claim when the hook data carries one.
func (t *Tracker) BeforeModifyLiquidity(p *pool.Pool, params pool.ModifyLiquidityParams) error {
	// reject bad input before any accounting state moves
	var claim *Claim
	if len(params.HookData) > 0 {
		c, err := DecodeClaim(params.HookData)
		if err != nil {
			return err
		}
		claim = &c
	}

	s := t.statefor(p)
	now := t.clk.Now()
	s.updateClock(now)

	_, tickCurrent := p.Slot0()
	if params.LiquidityDelta != nil && params.LiquidityDelta.Sign() > 0 {
		for _, tick := range [2]int{params.TickLower, params.TickUpper} {
			gross, _ := p.TickLiquidity(tick)
			if gross.IsZero() {
				s.lazyInit(tick, tickCurrent, now)
			}
		}
	}

	inside := s.secondsPerLiquidityInside(now, params.TickLower, params.TickUpper)
	key := keycodec.PositionKey(params.Owner, params.TickLower, params.TickUpper, params.Salt)
	pos := s.position(params.Owner, params.TickLower, params.TickUpper, params.Salt, key)
	preLiquidity := p.PositionLiquidity(params.Owner, params.TickLower, params.TickUpper, params.Salt)
	pos.accrue(preLiquidity, inside)

	if claim != nil {
		paid, err := t.withdraw(s, pos, now, *claim)
		if err != nil {
			return err
		}
		t.log.Debug("stream claim settled",
			zap.Stringer("pool", p.ID()),
			zap.Stringer("beneficiary", claim.Beneficiary),
			zap.String("amount", paid.Dec()))
	}
	return nil
}

// BeforeSwap advances the clock and walks the upcoming swap against the
// current state, inverting tick accumulators at every initialized crossing.
// The predicted delta is stashed for AfterSwap; the slot is write-once.
func (t *Tracker) BeforeSwap(p *pool.Pool, params pool.SwapParams) error {
	s := t.statefor(p)
	now := t.clk.Now()
	s.updateClock(now)

	delta, err := swapsim.Simulate(p, params, func(tick int) {
		s.cross(tick, now)
	})
	if err != nil {
		return err
	}

	invariant.Invariant(s.pendingSwap == nil, "swap scratch slot already occupied")
	s.pendingSwap = &delta
	return nil
}

// AfterSwap consumes the stashed prediction and compares it against the
// authoritative result. A mismatch means the accounting pass diverged from
// the engine and nothing downstream can be trusted, so it is fatal.
func (t *Tracker) AfterSwap(p *pool.Pool, params pool.SwapParams, delta pool.BalanceDelta) error {
	s := t.statefor(p)
	invariant.Invariant(s.pendingSwap != nil, "swap verify phase ran without a simulate phase")
	predicted := *s.pendingSwap
	s.pendingSwap = nil
	invariant.Invariant(predicted.Eq(delta),
		"simulated swap diverged: predicted %s/%s actual %s/%s",
		predicted.Amount0.Dec(), predicted.Amount1.Dec(), delta.Amount0.Dec(), delta.Amount1.Dec())
	return nil
}
