// Package pool implements the authoritative pool engine: slot0, in-range
// liquidity, the tick book, positions and the swap loop. Amount signs follow
// the delta convention where positive means owed to the pool.
package pool

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"
	"github.com/ftchann/liquidity-tracker/lib/fullmath"
	"github.com/ftchann/liquidity-tracker/lib/keycodec"
	"github.com/ftchann/liquidity-tracker/lib/sqrtmath"
	"github.com/ftchann/liquidity-tracker/lib/swapmath"
	td "github.com/ftchann/liquidity-tracker/lib/tickdata"
	"github.com/ftchann/liquidity-tracker/lib/tickmath"
)

var (
	ErrInvalidTickRange      = errors.New("pool: invalid tick range")
	ErrZeroAmount            = errors.New("pool: amount specified is zero")
	ErrInvalidPriceLimit     = errors.New("pool: invalid sqrt price limit")
	ErrInsufficientLiquidity = errors.New("pool: burn exceeds position liquidity")
	ErrUnknownFee            = errors.New("pool: unknown fee tier")
	ErrInvalidProtocolFee    = errors.New("pool: protocol fee denominator must be 0 or >= 4")
)

// ModifyLiquidityParams describes a mint, burn or zero-delta touch.
// LiquidityDelta is signed two's complement.
type ModifyLiquidityParams struct {
	Owner          common.Address
	TickLower      int
	TickUpper      int
	LiquidityDelta *ui.Int
	Salt           [32]byte
	HookData       []byte
}

// SwapParams follows the signed-amount convention: a negative
// AmountSpecified is an exact-input swap, a positive one exact-output.
// A zero SqrtPriceLimitX96 means no limit beyond the representable range.
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *ui.Int
	SqrtPriceLimitX96 *ui.Int
}

// BalanceDelta is a signed token pair delta. Positive amounts are owed to
// the pool, negative amounts are owed to the caller.
type BalanceDelta struct {
	Amount0 *ui.Int
	Amount1 *ui.Int
}

func ZeroDelta() BalanceDelta {
	return BalanceDelta{new(ui.Int), new(ui.Int)}
}

func (d BalanceDelta) Eq(o BalanceDelta) bool {
	return d.Amount0.Eq(o.Amount0) && d.Amount1.Eq(o.Amount1)
}

// Hooks receives control around pool mutations. The modify-liquidity hook
// runs before any state changes so it can observe pre-operation state; the
// swap hooks bracket the swap loop and AfterSwap receives the authoritative
// delta.
type Hooks interface {
	BeforeModifyLiquidity(p *Pool, params ModifyLiquidityParams) error
	BeforeSwap(p *Pool, params SwapParams) error
	AfterSwap(p *Pool, params SwapParams, delta BalanceDelta) error
}

// Position is one owner's liquidity in a tick range.
type Position struct {
	Owner     common.Address
	TickLower int
	TickUpper int
	Salt      [32]byte
	Liquidity *ui.Int
}

type stepComputations struct {
	sqrtPriceStartX96 *ui.Int
	tickNext          int
	initialized       bool
	sqrtPriceNextX96  *ui.Int
	amountIn          *ui.Int
	amountOut         *ui.Int
	feeAmount         *ui.Int
}

type swapState struct {
	amountSpecifiedRemainingI *ui.Int
	amountCalculatedI         *ui.Int
	sqrtPriceX96              *ui.Int
	tick                      int
	feeGrowthGlobalX128       *ui.Int
	protocolFee               *ui.Int
	liquidity                 *ui.Int
}

type Pool struct {
	id                   common.Hash
	token0               common.Address
	token1               common.Address
	fee                  int
	feeProtocol          int
	sqrtPriceX96         *ui.Int
	tickCurrent          int
	liquidity            *ui.Int
	feeGrowthGlobal0X128 *ui.Int
	feeGrowthGlobal1X128 *ui.Int
	protocolFees0        *ui.Int
	protocolFees1        *ui.Int
	tickSpacing          int
	tickData             *td.TickData
	positions            map[common.Hash]*Position
	hooks                Hooks
}

// New creates a pool at the given starting price. feeProtocol is the
// denominator of the protocol's fee share (0 disables it). hooks may be nil.
func New(token0, token1 common.Address, fee, feeProtocol int, sqrtPriceX96 *ui.Int, hooks Hooks) (*Pool, error) {
	tickSpacing, ok := cons.TickSpaces[fee]
	if !ok {
		return nil, ErrUnknownFee
	}
	if feeProtocol != 0 && feeProtocol < 4 {
		return nil, ErrInvalidProtocolFee
	}
	return &Pool{
		id:                   keycodec.PoolID(token0, token1, fee),
		token0:               token0,
		token1:               token1,
		fee:                  fee,
		feeProtocol:          feeProtocol,
		sqrtPriceX96:         sqrtPriceX96.Clone(),
		tickCurrent:          tickmath.TM.GetTickAtSqrtRatio(sqrtPriceX96),
		liquidity:            new(ui.Int),
		feeGrowthGlobal0X128: new(ui.Int),
		feeGrowthGlobal1X128: new(ui.Int),
		protocolFees0:        new(ui.Int),
		protocolFees1:        new(ui.Int),
		tickSpacing:          tickSpacing,
		tickData:             td.NewTickData(tickSpacing),
		positions:            make(map[common.Hash]*Position),
		hooks:                hooks,
	}, nil
}

func (p *Pool) ID() common.Hash        { return p.id }
func (p *Pool) Token0() common.Address { return p.token0 }
func (p *Pool) Token1() common.Address { return p.token1 }
func (p *Pool) Fee() int               { return p.fee }
func (p *Pool) FeeProtocol() int       { return p.feeProtocol }
func (p *Pool) TickSpacing() int       { return p.tickSpacing }

func (p *Pool) Slot0() (*ui.Int, int) {
	return p.sqrtPriceX96.Clone(), p.tickCurrent
}

func (p *Pool) Liquidity() *ui.Int {
	return p.liquidity.Clone()
}

func (p *Pool) ProtocolFees() (*ui.Int, *ui.Int) {
	return p.protocolFees0.Clone(), p.protocolFees1.Clone()
}

func (p *Pool) FeeGrowthGlobal() (*ui.Int, *ui.Int) {
	return p.feeGrowthGlobal0X128.Clone(), p.feeGrowthGlobal1X128.Clone()
}

// TickLiquidity returns the gross and net liquidity at an initialized tick,
// zeroes otherwise.
func (p *Pool) TickLiquidity(tick int) (gross, net *ui.Int) {
	t, ok := p.tickData.GetTick(tick)
	if !ok {
		return new(ui.Int), new(ui.Int)
	}
	return t.LiquidityGross.Clone(), t.LiquidityNet.Clone()
}

func (p *Pool) NextInitializedTick(from int, lte bool) (int, bool) {
	return p.tickData.NextInitializedTickWithinOneWord(from, lte)
}

// PositionLiquidity reads a position's liquidity; unknown positions read as
// zero.
func (p *Pool) PositionLiquidity(owner common.Address, lower, upper int, salt [32]byte) *ui.Int {
	pos, ok := p.positions[keycodec.PositionKey(owner, lower, upper, salt)]
	if !ok {
		return new(ui.Int)
	}
	return pos.Liquidity.Clone()
}

// ForEachPosition visits every live position. The callback must not mutate
// the pool.
func (p *Pool) ForEachPosition(fn func(key common.Hash, pos *Position)) {
	for k, v := range p.positions {
		fn(k, v)
	}
}

// Mint adds liquidity to the owner's position in [tickLower, tickUpper).
func (p *Pool) Mint(owner common.Address, tickLower, tickUpper int, amount *ui.Int, salt [32]byte, hookData []byte) (BalanceDelta, error) {
	return p.ModifyLiquidity(ModifyLiquidityParams{
		Owner:          owner,
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		LiquidityDelta: amount.Clone(),
		Salt:           salt,
		HookData:       hookData,
	})
}

// Burn removes liquidity from the owner's position.
func (p *Pool) Burn(owner common.Address, tickLower, tickUpper int, amount *ui.Int, salt [32]byte, hookData []byte) (BalanceDelta, error) {
	return p.ModifyLiquidity(ModifyLiquidityParams{
		Owner:          owner,
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		LiquidityDelta: new(ui.Int).Neg(amount),
		Salt:           salt,
		HookData:       hookData,
	})
}

// Touch is a zero-delta liquidity modification. It moves no funds and exists
// so hook data can be delivered against an existing position.
func (p *Pool) Touch(owner common.Address, tickLower, tickUpper int, salt [32]byte, hookData []byte) (BalanceDelta, error) {
	return p.ModifyLiquidity(ModifyLiquidityParams{
		Owner:     owner,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Salt:      salt,
		HookData:  hookData,
	})
}

func (p *Pool) ModifyLiquidity(params ModifyLiquidityParams) (BalanceDelta, error) {
	if params.TickLower >= params.TickUpper ||
		params.TickLower < tickmath.MinTick || params.TickUpper > tickmath.MaxTick ||
		params.TickLower%p.tickSpacing != 0 || params.TickUpper%p.tickSpacing != 0 {
		return ZeroDelta(), ErrInvalidTickRange
	}
	delta := params.LiquidityDelta
	if delta == nil {
		delta = new(ui.Int)
	}
	params.LiquidityDelta = delta.Clone()

	key := keycodec.PositionKey(params.Owner, params.TickLower, params.TickUpper, params.Salt)
	pos := p.positions[key]
	if delta.Sign() < 0 {
		burned := new(ui.Int).Neg(delta)
		if pos == nil || pos.Liquidity.Lt(burned) {
			return ZeroDelta(), ErrInsufficientLiquidity
		}
	}

	if p.hooks != nil {
		if err := p.hooks.BeforeModifyLiquidity(p, params); err != nil {
			return ZeroDelta(), err
		}
	}

	if !delta.IsZero() {
		p.tickData.Update(params.TickLower, delta, false)
		p.tickData.Update(params.TickUpper, delta, true)

		if p.tickCurrent >= params.TickLower && p.tickCurrent < params.TickUpper {
			p.liquidity.Add(p.liquidity, delta)
		}

		if pos == nil {
			pos = &Position{
				Owner:     params.Owner,
				TickLower: params.TickLower,
				TickUpper: params.TickUpper,
				Salt:      params.Salt,
				Liquidity: new(ui.Int),
			}
			p.positions[key] = pos
		}
		pos.Liquidity.Add(pos.Liquidity, delta)
		if pos.Liquidity.IsZero() {
			delete(p.positions, key)
		}
	}

	return p.amountsForLiquidity(params.TickLower, params.TickUpper, delta), nil
}

// amountsForLiquidity computes the signed token amounts for a signed
// liquidity delta, split by where the current price sits relative to the
// range.
func (p *Pool) amountsForLiquidity(tickLower, tickUpper int, delta *ui.Int) BalanceDelta {
	if delta.IsZero() {
		return ZeroDelta()
	}
	var amount0, amount1 *ui.Int
	if p.tickCurrent < tickLower {
		amount0 = sqrtmath.GetAmount0DeltaRounded(tickmath.TM.GetSqrtRatioAtTick(tickLower), tickmath.TM.GetSqrtRatioAtTick(tickUpper), delta)
		amount1 = new(ui.Int)
	} else if p.tickCurrent < tickUpper {
		amount0 = sqrtmath.GetAmount0DeltaRounded(p.sqrtPriceX96, tickmath.TM.GetSqrtRatioAtTick(tickUpper), delta)
		amount1 = sqrtmath.GetAmount1DeltaRounded(p.sqrtPriceX96, tickmath.TM.GetSqrtRatioAtTick(tickLower), delta)
	} else {
		amount0 = new(ui.Int)
		amount1 = sqrtmath.GetAmount1DeltaRounded(tickmath.TM.GetSqrtRatioAtTick(tickLower), tickmath.TM.GetSqrtRatioAtTick(tickUpper), delta)
	}
	return BalanceDelta{amount0, amount1}
}

// Swap executes a swap against the pool. The hook's BeforeSwap runs before
// any state changes; AfterSwap runs once slot0 is updated and receives the
// realized delta.
func (p *Pool) Swap(params SwapParams) (BalanceDelta, error) {
	if params.AmountSpecified == nil || params.AmountSpecified.IsZero() {
		return ZeroDelta(), ErrZeroAmount
	}

	sqrtPriceLimitX96 := new(ui.Int)
	if params.SqrtPriceLimitX96 != nil {
		sqrtPriceLimitX96.Set(params.SqrtPriceLimitX96)
	}
	if sqrtPriceLimitX96.IsZero() {
		if params.ZeroForOne {
			sqrtPriceLimitX96.Add(tickmath.MinSqrtRatio, cons.One)
		} else {
			sqrtPriceLimitX96.Sub(tickmath.MaxSqrtRatio, cons.One)
		}
	} else if params.ZeroForOne {
		if sqrtPriceLimitX96.Cmp(p.sqrtPriceX96) >= 0 || sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 {
			return ZeroDelta(), ErrInvalidPriceLimit
		}
	} else {
		if sqrtPriceLimitX96.Cmp(p.sqrtPriceX96) <= 0 || sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 {
			return ZeroDelta(), ErrInvalidPriceLimit
		}
	}

	if p.hooks != nil {
		if err := p.hooks.BeforeSwap(p, params); err != nil {
			return ZeroDelta(), err
		}
	}

	// The loop runs on the opposite sign convention: non-negative remaining
	// means exact input.
	internal := new(ui.Int).Neg(params.AmountSpecified)
	amount0, amount1 := p.swap(params.ZeroForOne, internal, sqrtPriceLimitX96)
	delta := BalanceDelta{amount0, amount1}

	if p.hooks != nil {
		if err := p.hooks.AfterSwap(p, params, delta); err != nil {
			return ZeroDelta(), err
		}
	}
	return delta, nil
}

func (p *Pool) swap(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *ui.Int) (*ui.Int, *ui.Int) {
	exactInput := amountSpecified.Sign() >= 0

	var feeGrowthGlobalX128 *ui.Int
	if zeroForOne {
		feeGrowthGlobalX128 = p.feeGrowthGlobal0X128.Clone()
	} else {
		feeGrowthGlobalX128 = p.feeGrowthGlobal1X128.Clone()
	}
	state := swapState{
		amountSpecifiedRemainingI: amountSpecified.Clone(),
		amountCalculatedI:         new(ui.Int),
		sqrtPriceX96:              p.sqrtPriceX96.Clone(),
		tick:                      p.tickCurrent,
		feeGrowthGlobalX128:       feeGrowthGlobalX128,
		protocolFee:               new(ui.Int),
		liquidity:                 p.liquidity.Clone(),
	}

	for !state.amountSpecifiedRemainingI.IsZero() && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		var step stepComputations
		step.sqrtPriceStartX96 = state.sqrtPriceX96
		step.tickNext, step.initialized = p.tickData.NextInitializedTickWithinOneWord(state.tick, zeroForOne)

		if step.tickNext < tickmath.MinTick {
			step.tickNext = tickmath.MinTick
		} else if step.tickNext > tickmath.MaxTick {
			step.tickNext = tickmath.MaxTick
		}

		step.sqrtPriceNextX96 = tickmath.TM.GetSqrtRatioAtTick(step.tickNext)
		var targetValue *ui.Int
		if zeroForOne {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) < 0 {
				targetValue = sqrtPriceLimitX96
			} else {
				targetValue = step.sqrtPriceNextX96
			}
		} else {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) > 0 {
				targetValue = sqrtPriceLimitX96
			} else {
				targetValue = step.sqrtPriceNextX96
			}
		}

		state.sqrtPriceX96, step.amountIn, step.amountOut, step.feeAmount =
			swapmath.ComputeSwapStep(state.sqrtPriceX96, targetValue, state.liquidity, state.amountSpecifiedRemainingI, p.fee)

		if exactInput {
			state.amountSpecifiedRemainingI.Sub(state.amountSpecifiedRemainingI, new(ui.Int).Add(step.amountIn, step.feeAmount))
			state.amountCalculatedI.Sub(state.amountCalculatedI, step.amountOut)
		} else {
			state.amountSpecifiedRemainingI.Add(state.amountSpecifiedRemainingI, step.amountOut)
			state.amountCalculatedI.Add(state.amountCalculatedI, new(ui.Int).Add(step.amountIn, step.feeAmount))
		}

		if p.feeProtocol > 0 {
			carve := new(ui.Int).Div(step.feeAmount, ui.NewInt(uint64(p.feeProtocol)))
			step.feeAmount.Sub(step.feeAmount, carve)
			state.protocolFee.Add(state.protocolFee, carve)
		}

		if state.liquidity.Sign() > 0 {
			fee := fullmath.MulDiv(step.feeAmount, cons.Q128, state.liquidity)
			state.feeGrowthGlobalX128.Add(state.feeGrowthGlobalX128, fee)
		}

		if state.sqrtPriceX96.Cmp(step.sqrtPriceNextX96) == 0 {
			if step.initialized {
				liquidityNet := p.tickData.Cross(step.tickNext)
				if zeroForOne {
					state.liquidity.Sub(state.liquidity, liquidityNet)
				} else {
					state.liquidity.Add(state.liquidity, liquidityNet)
				}
			}
			if zeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		} else if state.sqrtPriceX96.Cmp(step.sqrtPriceStartX96) != 0 {
			state.tick = tickmath.TM.GetTickAtSqrtRatio(state.sqrtPriceX96)
		}
	}

	p.tickCurrent = state.tick
	p.liquidity = state.liquidity
	p.sqrtPriceX96 = state.sqrtPriceX96

	if zeroForOne {
		p.feeGrowthGlobal0X128 = state.feeGrowthGlobalX128
		p.protocolFees0.Add(p.protocolFees0, state.protocolFee)
	} else {
		p.feeGrowthGlobal1X128 = state.feeGrowthGlobalX128
		p.protocolFees1.Add(p.protocolFees1, state.protocolFee)
	}

	amount0, amount1 := new(ui.Int), new(ui.Int)
	if zeroForOne == exactInput {
		amount0.Sub(amountSpecified, state.amountSpecifiedRemainingI)
		amount1.Set(state.amountCalculatedI)
	} else {
		amount0.Set(state.amountCalculatedI)
		amount1.Sub(amountSpecified, state.amountSpecifiedRemainingI)
	}
	return amount0, amount1
}
