package tracker

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	ui "github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/ftchann/liquidity-tracker/lib/fullmath"
	"github.com/ftchann/liquidity-tracker/lib/keycodec"
	"github.com/ftchann/liquidity-tracker/lib/vault"
)

// CreateStream funds a linear reward stream of rate tokens per second over
// duration. A fresh or expired key starts a new window at now; an active
// key is extended, keeping its original start. rate * duration moves into
// custody up front and must fit 128 bits.
func (t *Tracker) CreateStream(poolID common.Hash, creator common.Address, lower, upper int, token common.Address, rate *ui.Int, duration uint64) error {
	s, err := t.state(poolID)
	if err != nil {
		return err
	}
	if rate.IsZero() {
		return ErrZeroRate
	}
	if duration == 0 {
		return ErrZeroDuration
	}

	funding, overflow := new(ui.Int).MulOverflow(rate, ui.NewInt(duration))
	if overflow || funding.BitLen() > 128 {
		return ErrStreamOverflow
	}
	if err := t.vault.Transfer(token, creator, vault.Custody, funding); err != nil {
		return err
	}

	now := t.clk.Now()
	key := keycodec.StreamKey(creator, lower, upper, token, rate)
	st, ok := s.streams[key]
	if !ok || now >= st.expiry {
		// a prior expired window is frozen; the new one starts over
		s.streams[key] = &streamState{
			creator:   creator,
			tickLower: lower,
			tickUpper: upper,
			token:     token,
			rate:      rate.Clone(),
			start:     now,
			expiry:    now + duration,
			withdrawn: new(ui.Int),
		}
	} else {
		st.expiry += duration
	}

	t.log.Debug("stream funded",
		zap.Stringer("pool", poolID),
		zap.Stringer("creator", creator),
		zap.String("funding", funding.Dec()))
	return nil
}

// TerminateStream truncates an active stream's expiry to now and refunds
// the unstreamed remainder to the creator. Already accrued entitlements
// stay claimable. Only the creator's own key resolves, and an expired
// stream cannot be terminated.
func (t *Tracker) TerminateStream(poolID common.Hash, caller common.Address, lower, upper int, token common.Address, rate *ui.Int) error {
	s, err := t.state(poolID)
	if err != nil {
		return err
	}
	key := keycodec.StreamKey(caller, lower, upper, token, rate)
	st, ok := s.streams[key]
	if !ok {
		return ErrStreamNotFound
	}
	now := t.clk.Now()
	if now >= st.expiry {
		return ErrStreamExpired
	}

	refund := new(ui.Int).Mul(st.rate, ui.NewInt(st.expiry-now))
	if err := t.vault.Transfer(token, vault.Custody, caller, refund); err != nil {
		return err
	}
	st.expiry = now
	return nil
}

// KillStream removes the stream entry entirely, refunding everything funded
// into its window that was never withdrawn. Unlike TerminateStream it works
// after expiry.
func (t *Tracker) KillStream(poolID common.Hash, caller common.Address, lower, upper int, token common.Address, rate *ui.Int) error {
	s, err := t.state(poolID)
	if err != nil {
		return err
	}
	key := keycodec.StreamKey(caller, lower, upper, token, rate)
	st, ok := s.streams[key]
	if !ok {
		return ErrStreamNotFound
	}

	unspent := new(ui.Int).Mul(st.rate, ui.NewInt(st.expiry-st.start))
	unspent.Sub(unspent, st.withdrawn)
	if err := t.vault.Transfer(token, vault.Custody, caller, unspent); err != nil {
		return err
	}
	delete(s.streams, key)
	return nil
}

// calculateShare is the position's cumulative entitlement from one stream
// since its start, not an incremental amount.
func (s *poolState) calculateShare(pos *positionState, st *streamState, now uint64) *ui.Int {
	totalSecondsInside := s.secondsInside(now, st.tickLower, st.tickUpper)
	if totalSecondsInside == 0 {
		return new(ui.Int)
	}
	end := now
	if st.expiry < end {
		end = st.expiry
	}
	if end <= st.start {
		return new(ui.Int)
	}
	totalTokens := new(ui.Int).Mul(st.rate, ui.NewInt(end-st.start))
	divisor := new(ui.Int).Lsh(ui.NewInt(totalSecondsInside), 32)
	return fullmath.MulDiv(pos.relativeSecondsCumulativeX32, totalTokens, divisor)
}

// matchingStreams returns the streams a claim against (range, token, rate)
// settles, across all creators, in deterministic key order.
func (s *poolState) matchingStreams(lower, upper int, token common.Address, rate *ui.Int) []*streamState {
	var keys []common.Hash
	for key, st := range s.streams {
		if st.tickLower == lower && st.tickUpper == upper && st.token == token && st.rate.Eq(rate) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	out := make([]*streamState, len(keys))
	for i, key := range keys {
		out[i] = s.streams[key]
	}
	return out
}

// withdraw settles a claim: the position's aggregate entitlement across all
// matching streams, minus what this (token, rate) bucket already paid out.
// Repeat calls with no new accrual pay zero.
func (t *Tracker) withdraw(s *poolState, pos *positionState, now uint64, claim Claim) (*ui.Int, error) {
	share := new(ui.Int)
	streams := s.matchingStreams(pos.tickLower, pos.tickUpper, claim.Token, claim.Rate)
	for _, st := range streams {
		share.Add(share, s.calculateShare(pos, st, now))
	}

	claimKey := keycodec.ClaimKey(claim.Token, claim.Rate)
	claimed := pos.claimedFor(claimKey)
	if share.Cmp(claimed) <= 0 {
		return new(ui.Int), nil
	}
	payout := new(ui.Int).Sub(share, claimed)
	if err := t.vault.Transfer(claim.Token, vault.Custody, claim.Beneficiary, payout); err != nil {
		return nil, err
	}
	claimed.Set(share)

	// attribute the payout to stream windows in key order, capped by what
	// each window has left
	remaining := payout.Clone()
	for _, st := range streams {
		if remaining.IsZero() {
			break
		}
		funded := new(ui.Int).Mul(st.rate, ui.NewInt(st.expiry-st.start))
		capacity := new(ui.Int)
		if funded.Gt(st.withdrawn) {
			capacity.Sub(funded, st.withdrawn)
		}
		take := remaining
		if capacity.Lt(take) {
			take = capacity
		}
		st.withdrawn.Add(st.withdrawn, take)
		remaining = new(ui.Int).Sub(remaining, take)
	}
	return payout, nil
}
