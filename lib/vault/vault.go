// Package vault is an in-memory token ledger. Stream funding is escrowed
// under the custody address and paid out to beneficiaries from there.
package vault

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

// Custody holds escrowed stream funding until it is withdrawn or refunded.
var Custody = common.HexToAddress("0x0000000000000000000000000000000000000504")

var ErrInsufficientBalance = errors.New("vault: insufficient balance")

// Vault maps token -> holder -> balance.
type Vault struct {
	balances map[common.Address]map[common.Address]*ui.Int
}

func New() *Vault {
	return &Vault{balances: make(map[common.Address]map[common.Address]*ui.Int)}
}

// Balance returns a copy of holder's balance in token. Unknown pairs read as
// zero.
func (v *Vault) Balance(token, holder common.Address) *ui.Int {
	if hs, ok := v.balances[token]; ok {
		if b, ok := hs[holder]; ok {
			return new(ui.Int).Set(b)
		}
	}
	return new(ui.Int)
}

// Mint credits amount of token to holder.
func (v *Vault) Mint(token, holder common.Address, amount *ui.Int) {
	hs, ok := v.balances[token]
	if !ok {
		hs = make(map[common.Address]*ui.Int)
		v.balances[token] = hs
	}
	b, ok := hs[holder]
	if !ok {
		b = new(ui.Int)
		hs[holder] = b
	}
	b.Add(b, amount)
}

// Transfer moves amount of token from one holder to another. The balances
// are untouched on error.
func (v *Vault) Transfer(token, from, to common.Address, amount *ui.Int) error {
	hs, ok := v.balances[token]
	if !ok {
		if amount.IsZero() {
			return nil
		}
		return ErrInsufficientBalance
	}
	src, ok := hs[from]
	if !ok || src.Lt(amount) {
		if amount.IsZero() {
			return nil
		}
		return ErrInsufficientBalance
	}
	src.Sub(src, amount)
	dst, ok := hs[to]
	if !ok {
		dst = new(ui.Int)
		hs[to] = dst
	}
	dst.Add(dst, amount)
	return nil
}
