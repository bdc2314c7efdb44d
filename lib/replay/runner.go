package replay

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/ftchann/liquidity-tracker/lib/clock"
	"github.com/ftchann/liquidity-tracker/lib/pool"
	"github.com/ftchann/liquidity-tracker/lib/tracker"
)

var (
	ErrMismatch        = errors.New("replay: recorded amounts diverge from engine")
	ErrUnknownTxType   = errors.New("replay: unknown transaction type")
	ErrTimestampRegres = errors.New("replay: timestamps must be non-decreasing")
)

// Config describes the pool a log replays against.
type Config struct {
	Token0       common.Address
	Token1       common.Address
	Fee          int
	FeeProtocol  int
	SqrtPriceX96 *ui.Int
}

// PositionSnapshot is the per-position result of a replay, ready for a sink.
type PositionSnapshot struct {
	PoolID    common.Hash    `json:"poolId"`
	Owner     common.Address `json:"owner"`
	TickLower int            `json:"tickLower"`
	TickUpper int            `json:"tickUpper"`
	PointsX32 string         `json:"pointsX32"`
	Timestamp uint64         `json:"timestamp"`
}

// Runner owns one pool, the tracker hooked into it, and the manual clock the
// log's timestamps drive.
type Runner struct {
	clk     *clock.Manual
	tracker *tracker.Tracker
	pool    *pool.Pool
	log     *zap.Logger
	applied int
}

func NewRunner(cfg Config, tr *tracker.Tracker, clk *clock.Manual, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p, err := pool.New(cfg.Token0, cfg.Token1, cfg.Fee, cfg.FeeProtocol, cfg.SqrtPriceX96, tr)
	if err != nil {
		return nil, err
	}
	tr.RegisterPool(p)
	return &Runner{clk: clk, tracker: tr, pool: p, log: log}, nil
}

func (r *Runner) Pool() *pool.Pool          { return r.pool }
func (r *Runner) Tracker() *tracker.Tracker { return r.tracker }

// Apply executes one log entry. The entry's timestamp moves the clock; the
// recorded amounts, when present, are compared against what the engine
// produced.
func (r *Runner) Apply(tx Transaction) error {
	if tx.Timestamp < r.clk.Now() {
		return fmt.Errorf("%w: entry %s at %d, clock at %d", ErrTimestampRegres, tx.ID, tx.Timestamp, r.clk.Now())
	}
	r.clk.Set(tx.Timestamp)

	var delta pool.BalanceDelta
	var err error
	switch tx.Type {
	case "Mint":
		delta, err = r.pool.Mint(tx.Owner, tx.TickLower, tx.TickUpper, tx.Amount, [32]byte{}, tx.HookData)
	case "Burn":
		delta, err = r.pool.Burn(tx.Owner, tx.TickLower, tx.TickUpper, tx.Amount, [32]byte{}, tx.HookData)
	case "Touch":
		delta, err = r.pool.Touch(tx.Owner, tx.TickLower, tx.TickUpper, [32]byte{}, tx.HookData)
	case "Swap":
		delta, err = r.pool.Swap(pool.SwapParams{
			ZeroForOne:        tx.ZeroForOne,
			AmountSpecified:   tx.AmountSpecified,
			SqrtPriceLimitX96: tx.SqrtPriceLimitX96,
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTxType, tx.Type)
	}
	if err != nil {
		return fmt.Errorf("replay: entry %s: %w", tx.ID, err)
	}

	if tx.Amount0 != nil && !tx.Amount0.Eq(delta.Amount0) {
		return fmt.Errorf("%w: entry %s amount0 recorded %s got %s", ErrMismatch, tx.ID, tx.Amount0.Dec(), delta.Amount0.Dec())
	}
	if tx.Amount1 != nil && !tx.Amount1.Eq(delta.Amount1) {
		return fmt.Errorf("%w: entry %s amount1 recorded %s got %s", ErrMismatch, tx.ID, tx.Amount1.Dec(), delta.Amount1.Dec())
	}

	r.applied++
	r.log.Debug("applied",
		zap.String("type", tx.Type),
		zap.String("id", tx.ID),
		zap.Uint64("timestamp", tx.Timestamp))
	return nil
}

// Run applies the whole log in order.
func (r *Runner) Run(txs []Transaction) error {
	for _, tx := range txs {
		if err := r.Apply(tx); err != nil {
			return err
		}
	}
	r.log.Info("replay complete", zap.Int("transactions", r.applied))
	return nil
}

// Snapshots reports the refreshed point totals of every live position.
func (r *Runner) Snapshots() ([]PositionSnapshot, error) {
	var out []PositionSnapshot
	var walkErr error
	r.pool.ForEachPosition(func(_ common.Hash, pos *pool.Position) {
		if walkErr != nil {
			return
		}
		report, err := r.tracker.PositionReport(
			r.pool.ID(), pos.Owner, pos.TickLower, pos.TickUpper, pos.Salt,
			common.Address{}, new(ui.Int))
		if err != nil {
			walkErr = err
			return
		}
		out = append(out, PositionSnapshot{
			PoolID:    r.pool.ID(),
			Owner:     pos.Owner,
			TickLower: pos.TickLower,
			TickUpper: pos.TickUpper,
			PointsX32: report.PointsX32.Dec(),
			Timestamp: r.clk.Now(),
		})
	})
	return out, walkErr
}
