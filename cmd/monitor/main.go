package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/dex"
	"positionScope/internal/monitor"
	"positionScope/internal/notify"
	"positionScope/internal/position"
	"positionScope/internal/price"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "monitor",
		Short:        "Uniswap v3 position monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor a position continuously",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, true)
		},
	}
	addMonitorFlags(runCmd)
	root.AddCommand(runCmd)

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the position once and print the decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, false)
		},
	}
	addMonitorFlags(evaluateCmd)
	root.AddCommand(evaluateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("pool", "", "Uniswap v3 pool address")
	cmd.Flags().String("position-manager", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88", "NonfungiblePositionManager address")
	cmd.Flags().Uint64("token-id", 0, "position NFT token id")
	cmd.Flags().Duration("interval", 5*time.Minute, "evaluation interval")
	cmd.Flags().Int("band-bps", 100, "target band width in basis points")
	cmd.Flags().Float64("time-cap-hours", 24, "maximum hours between rebalances")
	cmd.Flags().Float64("fee-gas-multiple", 3, "required fees-to-gas multiple")
	cmd.Flags().Float64("gas-cost-usd", 30, "estimated rebalance gas cost in USD")
	cmd.Flags().String("token-prices", "", "token prices (comma-separated addr=usd)")
	cmd.Flags().Duration("price-ttl", 30*time.Second, "price cache TTL")
	cmd.Flags().String("out", "./data/decisions.jsonl", "decision history JSONL path")
	cmd.Flags().String("postgres-dsn", "", "optional Postgres DSN for decision history")
	cmd.Flags().String("telegram-token", "", "Telegram bot token")
	cmd.Flags().String("telegram-chat", "", "Telegram chat id")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runMonitor(cmd *cobra.Command, loop bool) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.PoolAddress) {
		return fmt.Errorf("valid pool address is required")
	}
	if !common.IsHexAddress(cfg.PositionManager) {
		return fmt.Errorf("valid position manager address is required")
	}
	if cfg.TokenID == 0 {
		return fmt.Errorf("token id is required")
	}
	if len(cfg.TokenPrices) == 0 {
		return fmt.Errorf("token prices are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := dex.NewReader(chainClient,
		common.HexToAddress(cfg.PoolAddress),
		common.HexToAddress(cfg.PositionManager),
		new(big.Int).SetUint64(cfg.TokenID),
		logger)

	prices := price.NewCached(price.NewStatic(cfg.TokenPrices), cfg.PriceTTL)
	advisor := position.NewAdvisor(prices, logger)

	var store storage.DecisionStore
	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PostgresDSN, decisionPositionID(cfg))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		store = storage.NewJsonlStore(cfg.Out)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" && cfg.TelegramChat != "" {
		notifier = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChat)
	}

	runner := monitor.NewRunner(monitor.Config{
		Interval:     cfg.Interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Advisor: position.Config{
			BandBasisPoints:     cfg.BandBasisPoints,
			TimeCapHours:        cfg.TimeCapHours,
			FeeGasMultiple:      cfg.FeeGasMultiple,
			EstimatedGasCostUSD: cfg.EstimatedGasCostUSD,
		},
	}, reader, advisor, store, notifier, logger)

	logger.Info("monitor start",
		zap.String("pool", cfg.PoolAddress),
		zap.Uint64("token_id", cfg.TokenID),
		zap.Duration("interval", cfg.Interval),
		zap.Int("band_bps", cfg.BandBasisPoints),
		zap.Float64("time_cap_hours", cfg.TimeCapHours),
		zap.Bool("loop", loop),
	)

	if loop {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	decision, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func decisionPositionID(cfg config.Config) string {
	return fmt.Sprintf("%s/%d", cfg.PoolAddress, cfg.TokenID)
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
