package tracker

import (
	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
)

// claimPayloadLen is token(20) + rate(16, big-endian) + beneficiary(20).
const claimPayloadLen = 56

// Claim names the stream bucket to settle during a liquidity touch-point
// and where to send the payout.
type Claim struct {
	Token       common.Address
	Rate        *ui.Int
	Beneficiary common.Address
}

// EncodeClaim packs a claim into the opaque hook-data format.
func EncodeClaim(c Claim) []byte {
	out := make([]byte, claimPayloadLen)
	copy(out[0:20], c.Token.Bytes())
	rate := c.Rate.Bytes32()
	copy(out[20:36], rate[16:32])
	copy(out[36:56], c.Beneficiary.Bytes())
	return out
}

// DecodeClaim parses hook data into a claim. Anything that is not exactly
// the 56-byte layout is rejected.
func DecodeClaim(data []byte) (Claim, error) {
	if len(data) != claimPayloadLen {
		return Claim{}, ErrMalformedClaim
	}
	var c Claim
	c.Token = common.BytesToAddress(data[0:20])
	c.Rate = new(ui.Int).SetBytes(data[20:36])
	c.Beneficiary = common.BytesToAddress(data[36:56])
	return c, nil
}
