package swapsim

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"

	cons "github.com/ftchann/liquidity-tracker/lib/constants"
	"github.com/ftchann/liquidity-tracker/lib/pool"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	owner  = common.HexToAddress("0x0000000000000000000000000000000000000f02")
)

func seededPool(t *testing.T, feeProtocol int) *pool.Pool {
	t.Helper()
	p, err := pool.New(token0, token1, 3000, feeProtocol, cons.Q96, nil)
	if err != nil {
		t.Fatal(err)
	}
	var salt [32]byte
	one := new(ui.Int).Mul(ui.NewInt(1), cons.E18)
	if _, err := p.Mint(owner, -120, 120, one, salt, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Mint(owner, -6000, 6000, one, salt, nil); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSimulateMatchesSwap(t *testing.T) {
	for _, feeProtocol := range []int{0, 4} {
		p := seededPool(t, feeProtocol)
		params := pool.SwapParams{
			ZeroForOne:      true,
			AmountSpecified: new(ui.Int).Neg(ui.NewInt(50_000_000_000_000_000)),
		}

		var crossed []int
		predicted, err := Simulate(p, params, func(tick int) {
			crossed = append(crossed, tick)
		})
		if err != nil {
			t.Fatal(err)
		}

		actual, err := p.Swap(params)
		if err != nil {
			t.Fatal(err)
		}
		if !predicted.Eq(actual) {
			t.Fatalf("feeProtocol=%d: predicted %s/%s, actual %s/%s",
				feeProtocol, predicted.Amount0, predicted.Amount1, actual.Amount0, actual.Amount1)
		}
		if len(crossed) != 1 || crossed[0] != -120 {
			t.Fatalf("crossed = %v, want [-120]", crossed)
		}
	}
}

func TestSimulateExactOutputMatchesSwap(t *testing.T) {
	p := seededPool(t, 0)
	params := pool.SwapParams{
		ZeroForOne:      false,
		AmountSpecified: ui.NewInt(1_000_000_000_000),
	}

	predicted, err := Simulate(p, params, nil)
	if err != nil {
		t.Fatal(err)
	}
	actual, err := p.Swap(params)
	if err != nil {
		t.Fatal(err)
	}
	if !predicted.Eq(actual) {
		t.Fatalf("predicted %s/%s, actual %s/%s",
			predicted.Amount0, predicted.Amount1, actual.Amount0, actual.Amount1)
	}
}

func TestSimulateDoesNotMutate(t *testing.T) {
	p := seededPool(t, 0)
	priceBefore, tickBefore := p.Slot0()
	liqBefore := p.Liquidity()

	if _, err := Simulate(p, pool.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: new(ui.Int).Neg(ui.NewInt(50_000_000_000_000_000)),
	}, nil); err != nil {
		t.Fatal(err)
	}

	priceAfter, tickAfter := p.Slot0()
	if !priceBefore.Eq(priceAfter) || tickBefore != tickAfter || !liqBefore.Eq(p.Liquidity()) {
		t.Fatal("simulation must not touch pool state")
	}
}

func TestSimulateZeroAmount(t *testing.T) {
	p := seededPool(t, 0)
	if _, err := Simulate(p, pool.SwapParams{ZeroForOne: true, AmountSpecified: new(ui.Int)}, nil); err != pool.ErrZeroAmount {
		t.Fatalf("err = %v, want ErrZeroAmount", err)
	}
}
