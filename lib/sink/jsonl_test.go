package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ftchann/liquidity-tracker/lib/replay"
)

func TestJsonlSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshots.jsonl")
	s := NewJsonlSink(path)

	snap := replay.PositionSnapshot{
		PoolID:    common.HexToHash("0x01"),
		Owner:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		TickLower: -1200,
		TickUpper: 1200,
		PointsX32: "429496729599",
		Timestamp: 1100,
	}
	if err := s.PutSnapshotBatch([]replay.PositionSnapshot{snap}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutSnapshotBatch([]replay.PositionSnapshot{snap}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutSnapshotBatch(nil); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got replay.PositionSnapshot
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.TickLower != -1200 || got.PointsX32 != "429496729599" {
			t.Fatalf("bad line: %+v", got)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("lines = %d, want 2", lines)
	}
}
