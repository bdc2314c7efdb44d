package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	owner  = common.HexToAddress("0x0000000000000000000000000000000000000f01")
)

func newTestPool(t *testing.T, feeProtocol int) *Pool {
	t.Helper()
	// sqrt ratio at tick 0
	p, err := New(token0, token1, 3000, feeProtocol, cons.Q96, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func e18(n uint64) *ui.Int {
	return new(ui.Int).Mul(ui.NewInt(n), cons.E18)
}

func TestMintInRangeRaisesLiquidity(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte

	delta, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if delta.Amount0.Sign() <= 0 || delta.Amount1.Sign() <= 0 {
		t.Fatalf("in-range mint must owe both tokens to the pool, got %s %s", delta.Amount0, delta.Amount1)
	}
	if !p.Liquidity().Eq(e18(1)) {
		t.Fatalf("liquidity = %s, want 1e18", p.Liquidity())
	}
	if !p.PositionLiquidity(owner, -1200, 1200, salt).Eq(e18(1)) {
		t.Fatal("position liquidity not recorded")
	}

	gross, net := p.TickLiquidity(-1200)
	if !gross.Eq(e18(1)) || !net.Eq(e18(1)) {
		t.Fatalf("lower tick gross/net = %s/%s", gross, net)
	}
	_, upperNet := p.TickLiquidity(1200)
	if upperNet.Sign() != -1 {
		t.Fatal("upper tick net must be negative")
	}
}

func TestMintOutOfRangeLeavesLiquidity(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte

	delta, err := p.Mint(owner, 1200, 3000, e18(1), salt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if delta.Amount0.Sign() <= 0 || !delta.Amount1.IsZero() {
		t.Fatalf("above-range mint is token0 only, got %s %s", delta.Amount0, delta.Amount1)
	}
	if !p.Liquidity().IsZero() {
		t.Fatal("out-of-range mint must not change in-range liquidity")
	}
}

func TestBurnReturnsFunds(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte

	minted, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil)
	if err != nil {
		t.Fatal(err)
	}
	burned, err := p.Burn(owner, -1200, 1200, e18(1), salt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if burned.Amount0.Sign() != -1 || burned.Amount1.Sign() != -1 {
		t.Fatalf("burn must owe tokens to the caller, got %s %s", burned.Amount0, burned.Amount1)
	}
	// burning rounds in the pool's favor
	returned0 := new(ui.Int).Neg(burned.Amount0)
	if returned0.Gt(minted.Amount0) {
		t.Fatalf("burn returned more token0 than minted: %s > %s", returned0, minted.Amount0)
	}
	if !p.Liquidity().IsZero() {
		t.Fatal("liquidity must drop back to zero")
	}
	if !p.PositionLiquidity(owner, -1200, 1200, salt).IsZero() {
		t.Fatal("emptied position must be gone")
	}
}

func TestBurnExceedingPositionFails(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte
	if _, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Burn(owner, -1200, 1200, e18(2), salt, nil); err != ErrInsufficientLiquidity {
		t.Fatalf("err = %v, want ErrInsufficientLiquidity", err)
	}
	if !p.Liquidity().Eq(e18(1)) {
		t.Fatal("failed burn must not change state")
	}
}

func TestModifyLiquidityValidation(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte
	cases := []struct{ lower, upper int }{
		{1200, -1200},
		{60, 60},
		{-1201, 1200},
		{-1200, 1201},
	}
	for _, c := range cases {
		if _, err := p.Mint(owner, c.lower, c.upper, e18(1), salt, nil); err != ErrInvalidTickRange {
			t.Fatalf("[%d,%d): err = %v, want ErrInvalidTickRange", c.lower, c.upper, err)
		}
	}
}

func TestSwapExactInput(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte
	if _, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}

	amountIn := ui.NewInt(1_000_000_000_000) // small against 1e18 liquidity
	delta, err := p.Swap(SwapParams{
		ZeroForOne:      true,
		AmountSpecified: new(ui.Int).Neg(amountIn),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !delta.Amount0.Eq(amountIn) {
		t.Fatalf("exact input must be fully consumed, got %s", delta.Amount0)
	}
	if delta.Amount1.Sign() != -1 {
		t.Fatalf("output must be owed to the caller, got %s", delta.Amount1)
	}

	sqrtPrice, tick := p.Slot0()
	if sqrtPrice.Cmp(cons.Q96) >= 0 {
		t.Fatal("zeroForOne swap must lower the price")
	}
	if tick > 0 {
		t.Fatalf("tick = %d, must not rise", tick)
	}
}

func TestSwapExactOutput(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte
	if _, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}

	amountOut := ui.NewInt(1_000_000_000_000)
	delta, err := p.Swap(SwapParams{
		ZeroForOne:      true,
		AmountSpecified: amountOut.Clone(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := new(ui.Int).Neg(amountOut); !delta.Amount1.Eq(want) {
		t.Fatalf("exact output delta = %s, want %s", delta.Amount1, want)
	}
	if delta.Amount0.Sign() != 1 {
		t.Fatal("input must be owed to the pool")
	}
}

func TestSwapCrossesInitializedTick(t *testing.T) {
	p := newTestPool(t, 0)
	var salt [32]byte
	if _, err := p.Mint(owner, -120, 120, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Mint(owner, -6000, 6000, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}

	// large enough to push the price below tick -120 but not past -6000
	delta, err := p.Swap(SwapParams{
		ZeroForOne:      true,
		AmountSpecified: new(ui.Int).Neg(ui.NewInt(50_000_000_000_000_000)),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, tick := p.Slot0()
	if tick >= -120 {
		t.Fatalf("tick = %d, expected to cross below -120", tick)
	}
	// inner position dropped out, only the wide one remains
	if !p.Liquidity().Eq(e18(1)) {
		t.Fatalf("liquidity after crossing = %s, want 1e18", p.Liquidity())
	}
	if delta.Amount1.Sign() != -1 {
		t.Fatal("output must be owed to the caller")
	}
}

func TestSwapZeroAmount(t *testing.T) {
	p := newTestPool(t, 0)
	if _, err := p.Swap(SwapParams{ZeroForOne: true, AmountSpecified: new(ui.Int)}); err != ErrZeroAmount {
		t.Fatalf("err = %v, want ErrZeroAmount", err)
	}
}

func TestSwapInvalidPriceLimit(t *testing.T) {
	p := newTestPool(t, 0)
	// limit above current price on a zeroForOne swap
	limit := new(ui.Int).Add(cons.Q96, cons.One)
	_, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   new(ui.Int).Neg(ui.NewInt(1000)),
		SqrtPriceLimitX96: limit,
	})
	if err != ErrInvalidPriceLimit {
		t.Fatalf("err = %v, want ErrInvalidPriceLimit", err)
	}
}

func TestProtocolFeeCarveOut(t *testing.T) {
	p := newTestPool(t, 4)
	var salt [32]byte
	if _, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Swap(SwapParams{
		ZeroForOne:      true,
		AmountSpecified: new(ui.Int).Neg(ui.NewInt(1_000_000_000_000)),
	}); err != nil {
		t.Fatal(err)
	}
	fees0, fees1 := p.ProtocolFees()
	if fees0.IsZero() {
		t.Fatal("protocol must take a share of the token0 fee")
	}
	if !fees1.IsZero() {
		t.Fatal("no token1 fees on a zeroForOne exact input swap")
	}
}

type recordingHooks struct {
	calls []string
}

func (h *recordingHooks) BeforeModifyLiquidity(p *Pool, params ModifyLiquidityParams) error {
	h.calls = append(h.calls, "beforeModify")
	return nil
}

func (h *recordingHooks) BeforeSwap(p *Pool, params SwapParams) error {
	h.calls = append(h.calls, "beforeSwap")
	return nil
}

func (h *recordingHooks) AfterSwap(p *Pool, params SwapParams, delta BalanceDelta) error {
	h.calls = append(h.calls, "afterSwap")
	return nil
}

func TestHookDispatchOrder(t *testing.T) {
	hooks := &recordingHooks{}
	p, err := New(token0, token1, 3000, 0, cons.Q96, hooks)
	if err != nil {
		t.Fatal(err)
	}
	var salt [32]byte
	if _, err := p.Mint(owner, -1200, 1200, e18(1), salt, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Swap(SwapParams{
		ZeroForOne:      true,
		AmountSpecified: new(ui.Int).Neg(ui.NewInt(1_000_000)),
	}); err != nil {
		t.Fatal(err)
	}
	want := []string{"beforeModify", "beforeSwap", "afterSwap"}
	if len(hooks.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", hooks.calls, want)
	}
	for i := range want {
		if hooks.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", hooks.calls, want)
		}
	}
}
