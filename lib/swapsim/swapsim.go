// Package swapsim replays the pool's swap stepping algorithm against a
// read-only view. It mutates nothing; its value is the sequence of tick
// crossings it reports and the predicted delta, which must match what the
// real swap later produces.
package swapsim

import (
	ui "github.com/holiman/uint256"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"
	"github.com/ftchann/liquidity-tracker/lib/pool"
	"github.com/ftchann/liquidity-tracker/lib/swapmath"
	"github.com/ftchann/liquidity-tracker/lib/tickmath"
)

// View is the read-only pool state the simulator consumes. *pool.Pool
// satisfies it.
type View interface {
	Slot0() (sqrtPriceX96 *ui.Int, tick int)
	Liquidity() *ui.Int
	TickLiquidity(tick int) (gross, net *ui.Int)
	NextInitializedTick(from int, lte bool) (next int, initialized bool)
	Fee() int
	FeeProtocol() int
	TickSpacing() int
}

// Simulate walks the swap the pool is about to execute and returns the
// delta it will produce. onCross fires once per initialized tick boundary
// the price moves across, in crossing order, before the boundary's
// liquidity is applied. onCross may be nil.
func Simulate(v View, params pool.SwapParams, onCross func(tick int)) (pool.BalanceDelta, error) {
	if params.AmountSpecified == nil || params.AmountSpecified.IsZero() {
		return pool.ZeroDelta(), pool.ErrZeroAmount
	}

	sqrtPriceX96, tick := v.Slot0()

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
		if sqrtPriceLimitX96.Cmp(sqrtPriceX96) >= 0 || sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 {
			return pool.ZeroDelta(), pool.ErrInvalidPriceLimit
		}
	} else {
		if sqrtPriceLimitX96.Cmp(sqrtPriceX96) <= 0 || sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 {
			return pool.ZeroDelta(), pool.ErrInvalidPriceLimit
		}
	}

	zeroForOne := params.ZeroForOne
	amountSpecified := new(ui.Int).Neg(params.AmountSpecified)
	exactInput := amountSpecified.Sign() >= 0

	remaining := amountSpecified.Clone()
	calculated := new(ui.Int)
	liquidity := v.Liquidity()
	fee := v.Fee()
	feeProtocol := v.FeeProtocol()

	for !remaining.IsZero() && sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		sqrtPriceStartX96 := sqrtPriceX96
		tickNext, initialized := v.NextInitializedTick(tick, zeroForOne)

		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}

		sqrtPriceNextX96 := tickmath.TM.GetSqrtRatioAtTick(tickNext)
		var targetValue *ui.Int
		if zeroForOne {
			if sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) < 0 {
				targetValue = sqrtPriceLimitX96
			} else {
				targetValue = sqrtPriceNextX96
			}
		} else {
			if sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) > 0 {
				targetValue = sqrtPriceLimitX96
			} else {
				targetValue = sqrtPriceNextX96
			}
		}

		var amountIn, amountOut, feeAmount *ui.Int
		sqrtPriceX96, amountIn, amountOut, feeAmount =
			swapmath.ComputeSwapStep(sqrtPriceX96, targetValue, liquidity, remaining, fee)

		if exactInput {
			remaining.Sub(remaining, new(ui.Int).Add(amountIn, feeAmount))
			calculated.Sub(calculated, amountOut)
		} else {
			remaining.Add(remaining, amountOut)
			calculated.Add(calculated, new(ui.Int).Add(amountIn, feeAmount))
		}

		// protocol carve-out changes nothing observable here but keeps the
		// arithmetic identical to the pool's
		if feeProtocol > 0 {
			carve := new(ui.Int).Div(feeAmount, ui.NewInt(uint64(feeProtocol)))
			feeAmount.Sub(feeAmount, carve)
		}

		if sqrtPriceX96.Cmp(sqrtPriceNextX96) == 0 {
			if initialized {
				if onCross != nil {
					onCross(tickNext)
				}
				_, liquidityNet := v.TickLiquidity(tickNext)
				if zeroForOne {
					liquidity.Sub(liquidity, liquidityNet)
				} else {
					liquidity.Add(liquidity, liquidityNet)
				}
			}
			if zeroForOne {
				tick = tickNext - 1
			} else {
				tick = tickNext
			}
		} else if sqrtPriceX96.Cmp(sqrtPriceStartX96) != 0 {
			tick = tickmath.TM.GetTickAtSqrtRatio(sqrtPriceX96)
		}
	}

	amount0, amount1 := new(ui.Int), new(ui.Int)
	if zeroForOne == exactInput {
		amount0.Sub(amountSpecified, remaining)
		amount1.Set(calculated)
	} else {
		amount0.Set(calculated)
		amount1.Sub(amountSpecified, remaining)
	}
	return pool.BalanceDelta{Amount0: amount0, Amount1: amount1}, nil
}
