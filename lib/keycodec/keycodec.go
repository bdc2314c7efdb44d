// Package keycodec derives the deterministic compound keys under which
// ticks, positions and streams are stored. All keys are blake3 digests of a
// fixed-width encoding, so two structurally equal inputs always map to the
// same key.
package keycodec

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"github.com/zeebo/blake3"
)

func putTick(h *blake3.Hasher, tick int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(tick)))
	h.Write(buf[:])
}

func digest(h *blake3.Hasher) common.Hash {
	var out common.Hash
	h.Digest().Read(out[:])
	return out
}

// PoolID identifies a pool by its token pair and fee tier.
func PoolID(token0, token1 common.Address, fee int) common.Hash {
	h := blake3.New()
	h.Write(token0.Bytes())
	h.Write(token1.Bytes())
	var feeBuf [8]byte
	binary.BigEndian.PutUint64(feeBuf[:], uint64(fee))
	h.Write(feeBuf[:])
	return digest(h)
}

// PositionKey identifies a position by owner, tick range and salt.
func PositionKey(owner common.Address, lower, upper int, salt [32]byte) common.Hash {
	h := blake3.New()
	h.Write(owner.Bytes())
	putTick(h, lower)
	putTick(h, upper)
	h.Write(salt[:])
	return digest(h)
}

// StreamKey identifies a reward stream by creator, tick range, reward token
// and rate.
func StreamKey(creator common.Address, lower, upper int, token common.Address, rate *ui.Int) common.Hash {
	h := blake3.New()
	h.Write(creator.Bytes())
	putTick(h, lower)
	putTick(h, upper)
	h.Write(token.Bytes())
	rateBytes := rate.Bytes32()
	h.Write(rateBytes[:])
	return digest(h)
}

// ClaimKey identifies a (token, rate) bucket inside a position's claimed
// ledger.
func ClaimKey(token common.Address, rate *ui.Int) common.Hash {
	h := blake3.New()
	h.Write(token.Bytes())
	rateBytes := rate.Bytes32()
	h.Write(rateBytes[:])
	return digest(h)
}
