package vault

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

func TestMintAndBalance(t *testing.T) {
	v := New()
	if !v.Balance(tokenA, alice).IsZero() {
		t.Fatal("fresh vault should read zero")
	}
	v.Mint(tokenA, alice, ui.NewInt(100))
	v.Mint(tokenA, alice, ui.NewInt(50))
	if got := v.Balance(tokenA, alice); !got.Eq(ui.NewInt(150)) {
		t.Fatalf("balance = %s, want 150", got)
	}
}

func TestBalanceReturnsCopy(t *testing.T) {
	v := New()
	v.Mint(tokenA, alice, ui.NewInt(10))
	b := v.Balance(tokenA, alice)
	b.Add(b, ui.NewInt(1000))
	if got := v.Balance(tokenA, alice); !got.Eq(ui.NewInt(10)) {
		t.Fatalf("internal balance mutated through returned copy, got %s", got)
	}
}

func TestTransfer(t *testing.T) {
	v := New()
	v.Mint(tokenA, alice, ui.NewInt(100))
	if err := v.Transfer(tokenA, alice, Custody, ui.NewInt(60)); err != nil {
		t.Fatal(err)
	}
	if got := v.Balance(tokenA, alice); !got.Eq(ui.NewInt(40)) {
		t.Fatalf("sender balance = %s, want 40", got)
	}
	if got := v.Balance(tokenA, Custody); !got.Eq(ui.NewInt(60)) {
		t.Fatalf("custody balance = %s, want 60", got)
	}
}

func TestTransferInsufficient(t *testing.T) {
	v := New()
	v.Mint(tokenA, alice, ui.NewInt(10))
	if err := v.Transfer(tokenA, alice, bob, ui.NewInt(11)); err != ErrInsufficientBalance {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if got := v.Balance(tokenA, alice); !got.Eq(ui.NewInt(10)) {
		t.Fatalf("failed transfer mutated balance, got %s", got)
	}
	if err := v.Transfer(tokenA, bob, alice, ui.NewInt(1)); err != ErrInsufficientBalance {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestTransferZeroFromUnknownHolder(t *testing.T) {
	v := New()
	if err := v.Transfer(tokenA, alice, bob, new(ui.Int)); err != nil {
		t.Fatalf("zero transfer should succeed, got %v", err)
	}
}
