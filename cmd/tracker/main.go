package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ftchann/liquidity-tracker/lib/clock"
	"github.com/ftchann/liquidity-tracker/lib/replay"
	"github.com/ftchann/liquidity-tracker/lib/sink"
	"github.com/ftchann/liquidity-tracker/lib/tracker"
	"github.com/ftchann/liquidity-tracker/lib/vault"
)

func main() {
	root := &cobra.Command{
		Use:          "tracker",
		Short:        "Time-weighted liquidity tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a transaction log and report position point snapshots",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("data", "", "transaction log JSON path")
	replayCmd.Flags().String("token0", "", "pool token0 address")
	replayCmd.Flags().String("token1", "", "pool token1 address")
	replayCmd.Flags().Int("fee", 3000, "pool fee in pips")
	replayCmd.Flags().Int("fee-protocol", 0, "protocol fee denominator, 0 disables")
	replayCmd.Flags().String("sqrt-price-x96", "", "starting sqrt price, Q64.96 decimal")
	replayCmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshot upserts")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Data == "" {
		return fmt.Errorf("transaction log path is required")
	}
	if cfg.SqrtPriceX96 == "" {
		return fmt.Errorf("starting sqrt price is required")
	}
	sqrtPrice, err := ParseSqrtPrice(cfg.SqrtPriceX96)
	if err != nil {
		return err
	}

	txs, err := replay.LoadTransactions(cfg.Data)
	if err != nil {
		return err
	}
	logger.Info("transaction log loaded", zap.Int("transactions", len(txs)))

	var start uint64
	if len(txs) > 0 {
		start = txs[0].Timestamp
	}
	clk := clock.NewManual(start)
	tr := tracker.New(clk, vault.New(), logger)

	runner, err := replay.NewRunner(replay.Config{
		Token0:       common.HexToAddress(cfg.Token0),
		Token1:       common.HexToAddress(cfg.Token1),
		Fee:          cfg.Fee,
		FeeProtocol:  cfg.FeeProtocol,
		SqrtPriceX96: sqrtPrice,
	}, tr, clk, logger)
	if err != nil {
		return err
	}

	if err := runner.Run(txs); err != nil {
		return err
	}

	snaps, err := runner.Snapshots()
	if err != nil {
		return err
	}
	logger.Info("snapshots collected", zap.Int("positions", len(snaps)))

	sinks := []sink.Sink{sink.NewJsonlSink(cfg.Out)}
	if cfg.PGDSN != "" {
		pg, err := sink.NewPostgresSink(context.Background(), cfg.PGDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		sinks = append(sinks, pg)
	}
	for _, s := range sinks {
		if err := s.PutSnapshotBatch(snaps); err != nil {
			return err
		}
	}

	logger.Info("replay finished", zap.String("out", cfg.Out))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
