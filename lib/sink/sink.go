// Package sink persists replay position snapshots.
package sink

import "github.com/ftchann/liquidity-tracker/lib/replay"

// Sink receives position snapshot batches.
type Sink interface {
	PutSnapshotBatch(snaps []replay.PositionSnapshot) error
}
