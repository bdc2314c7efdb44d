package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ftchann/liquidity-tracker/lib/replay"
)

// PostgresSink upserts position snapshots into a position_snapshots table,
// keyed by (pool_id, owner, tick_lower, tick_upper).
type PostgresSink struct {
	pool *pgxpool.Pool
	ctx  context.Context
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresSink{pool: pool, ctx: ctx}, nil
}

func (s *PostgresSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresSink) PutSnapshotBatch(snaps []replay.PositionSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snaps {
		batch.Queue(`
			INSERT INTO position_snapshots (
				pool_id, owner, tick_lower, tick_upper, points_x32, snapshot_ts, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (pool_id, owner, tick_lower, tick_upper)
			DO UPDATE SET
				points_x32 = EXCLUDED.points_x32,
				snapshot_ts = EXCLUDED.snapshot_ts,
				updated_at = now()
		`,
			snap.PoolID.Hex(),
			snap.Owner.Hex(),
			snap.TickLower,
			snap.TickUpper,
			snap.PointsX32,
			int64(snap.Timestamp),
		)
	}

	br := s.pool.SendBatch(s.ctx, batch)
	defer br.Close()

	for range snaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
