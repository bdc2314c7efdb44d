package main

import (
	"fmt"
	"math/big"
	"strings"

	ui "github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds the settings for a replay run.
type ReplayConfig struct {
	Data         string
	Token0       string
	Token1       string
	Fee          int
	FeeProtocol  int
	SqrtPriceX96 string
	Out          string
	PGDSN        string
	LogLevel     string
}

// LoadReplay merges config file, environment variables, and flags.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fee", 3000)
	v.SetDefault("log-level", "info")
	v.SetDefault("out", "./data/snapshots.jsonl")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return ReplayConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ReplayConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return ReplayConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := ReplayConfig{
		Data:         v.GetString("data"),
		Token0:       v.GetString("token0"),
		Token1:       v.GetString("token1"),
		Fee:          v.GetInt("fee"),
		FeeProtocol:  v.GetInt("fee-protocol"),
		SqrtPriceX96: v.GetString("sqrt-price-x96"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}
	return cfg, nil
}

// ParseSqrtPrice reads a decimal Q64.96 sqrt price.
func ParseSqrtPrice(s string) (*ui.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() <= 0 {
		return nil, fmt.Errorf("bad sqrt price %q", s)
	}
	v, overflow := ui.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("sqrt price %q exceeds 256 bits", s)
	}
	return v, nil
}
