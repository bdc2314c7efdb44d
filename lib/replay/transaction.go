// Package replay decodes a JSON transaction log and drives it through the
// pool engine and the tracker, cross-checking recorded swap and liquidity
// amounts along the way.
package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

type transactionInput struct {
	Type              string `json:"type"`
	ID                string `json:"id"`
	Timestamp         uint64 `json:"timestamp"`
	Owner             string `json:"owner,omitempty"`
	TickLower         int    `json:"tickLower,omitempty"`
	TickUpper         int    `json:"tickUpper,omitempty"`
	Amount            string `json:"amount,omitempty"`
	Amount0           string `json:"amount0,omitempty"`
	Amount1           string `json:"amount1,omitempty"`
	ZeroForOne        bool   `json:"zeroForOne,omitempty"`
	AmountSpecified   string `json:"amountSpecified,omitempty"`
	SqrtPriceLimitX96 string `json:"sqrtPriceLimitX96,omitempty"`
	HookData          string `json:"hookData,omitempty"`
}

// Transaction is one decoded log entry. Amount0/Amount1 are the recorded
// deltas in the owed-to-pool sign convention; when present the runner
// cross-checks them against what the engine reproduces.
type Transaction struct {
	Type              string
	ID                string
	Timestamp         uint64
	Owner             common.Address
	TickLower         int
	TickUpper         int
	Amount            *ui.Int
	Amount0           *ui.Int
	Amount1           *ui.Int
	ZeroForOne        bool
	AmountSpecified   *ui.Int
	SqrtPriceLimitX96 *ui.Int
	HookData          []byte
}

// parseSigned reads a decimal string, possibly negative, into two's
// complement. Empty strings read as nil.
func parseSigned(s string) (*ui.Int, error) {
	if s == "" {
		return nil, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("replay: bad number %q", s)
	}
	neg := b.Sign() < 0
	v, overflow := ui.FromBig(new(big.Int).Abs(b))
	if overflow {
		return nil, fmt.Errorf("replay: number %q exceeds 256 bits", s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

func decode(in transactionInput) (Transaction, error) {
	tx := Transaction{
		Type:       in.Type,
		ID:         in.ID,
		Timestamp:  in.Timestamp,
		Owner:      common.HexToAddress(in.Owner),
		TickLower:  in.TickLower,
		TickUpper:  in.TickUpper,
		ZeroForOne: in.ZeroForOne,
	}
	var err error
	if tx.Amount, err = parseSigned(in.Amount); err != nil {
		return tx, err
	}
	if tx.Amount0, err = parseSigned(in.Amount0); err != nil {
		return tx, err
	}
	if tx.Amount1, err = parseSigned(in.Amount1); err != nil {
		return tx, err
	}
	if tx.AmountSpecified, err = parseSigned(in.AmountSpecified); err != nil {
		return tx, err
	}
	if tx.SqrtPriceLimitX96, err = parseSigned(in.SqrtPriceLimitX96); err != nil {
		return tx, err
	}
	if in.HookData != "" {
		tx.HookData = common.FromHex(in.HookData)
	}
	return tx, nil
}

// ParseTransactions reads a JSON array of log entries.
func ParseTransactions(r io.Reader) ([]Transaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var inputs []transactionInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("replay: decoding transaction log: %w", err)
	}
	txs := make([]Transaction, 0, len(inputs))
	for i, in := range inputs {
		tx, err := decode(in)
		if err != nil {
			return nil, fmt.Errorf("replay: entry %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// LoadTransactions reads a transaction log file.
func LoadTransactions(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTransactions(f)
}
