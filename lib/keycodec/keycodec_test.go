package keycodec

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

func TestPositionKeyDeterministic(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	var salt [32]byte

	a := PositionKey(owner, -1200, 1200, salt)
	b := PositionKey(owner, -1200, 1200, salt)
	if a != b {
		t.Fatalf("same inputs produced different keys: %s %s", a, b)
	}

	c := PositionKey(owner, -1200, 1260, salt)
	if a == c {
		t.Fatalf("different ranges collided on key %s", a)
	}

	salt[0] = 1
	d := PositionKey(owner, -1200, 1200, salt)
	if a == d {
		t.Fatalf("different salts collided on key %s", a)
	}
}

func TestPositionKeyNegativeTicksDistinct(t *testing.T) {
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	var salt [32]byte
	a := PositionKey(owner, -60, 60, salt)
	b := PositionKey(owner, 60, 60, salt)
	if a == b {
		t.Fatal("sign of lower tick was lost in encoding")
	}
}

func TestStreamKeyDependsOnAllFields(t *testing.T) {
	creator := common.HexToAddress("0x3333333333333333333333333333333333333333")
	token := common.HexToAddress("0x4444444444444444444444444444444444444444")
	rate := ui.NewInt(1000)

	base := StreamKey(creator, -1200, 1200, token, rate)
	if base != StreamKey(creator, -1200, 1200, token, ui.NewInt(1000)) {
		t.Fatal("equal rates produced different keys")
	}
	if base == StreamKey(creator, -1200, 1200, token, ui.NewInt(1001)) {
		t.Fatal("rate not part of key")
	}
	other := common.HexToAddress("0x5555555555555555555555555555555555555555")
	if base == StreamKey(other, -1200, 1200, token, rate) {
		t.Fatal("creator not part of key")
	}
	if base == StreamKey(creator, -1200, 1200, other, rate) {
		t.Fatal("token not part of key")
	}
}

func TestClaimKey(t *testing.T) {
	token := common.HexToAddress("0x6666666666666666666666666666666666666666")
	if ClaimKey(token, ui.NewInt(7)) == ClaimKey(token, ui.NewInt(8)) {
		t.Fatal("rate not part of claim key")
	}
}

func TestPoolID(t *testing.T) {
	t0 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	t1 := common.HexToAddress("0x0000000000000000000000000000000000000002")
	if PoolID(t0, t1, 500) == PoolID(t0, t1, 3000) {
		t.Fatal("fee not part of pool id")
	}
	if PoolID(t0, t1, 500) == PoolID(t1, t0, 500) {
		t.Fatal("token order not part of pool id")
	}
}
