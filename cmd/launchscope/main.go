package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "launchscope",
		Short:        "Launchpad pool quote service and indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve swap quotes over HTTP",
		RunE:  runServe,
	}

	serveCmd.Flags().String("rpc", "", "chain RPC URL")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("snapshot-ttl", 2*time.Second, "pool snapshot cache TTL")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Stream factory and pool logs to JSONL",
		RunE:  runIndex,
	}

	indexCmd.Flags().String("rpc", "", "chain RPC URL")
	indexCmd.Flags().String("factory", "", "launchpad factory address")
	indexCmd.Flags().StringSlice("pool", nil, "extra pool addresses (comma-separated)")
	indexCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	indexCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	indexCmd.Flags().StringSlice("topic0", nil, "topic0 signatures (comma-separated)")
	indexCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	indexCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	indexCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	indexCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	indexCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	indexCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	indexCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "chain RPC URL")
	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Aggregate typed events into token window metrics",
		RunE:  runMetrics,
	}

	metricsCmd.Flags().String("rpc", "", "chain RPC URL")
	metricsCmd.Flags().String("in", "", "input typed events JSONL")
	metricsCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	metricsCmd.Flags().String("base-token", "", "base asset address for price orientation")
	metricsCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	metricsCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	metricsCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	metricsCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	metricsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(metricsCmd)

	salesCmd := &cobra.Command{
		Use:   "sales",
		Short: "Replay decoded events into fair-launch sale rows",
		RunE:  runSales,
	}

	salesCmd.Flags().String("rpc", "", "chain RPC URL")
	salesCmd.Flags().String("in", "", "typed events JSONL input path")
	salesCmd.Flags().String("pg-dsn", "", "PostgreSQL DSN")
	salesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(salesCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Print a single swap quote",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "chain RPC URL")
	quoteCmd.Flags().String("pool", "", "pool address")
	quoteCmd.Flags().String("token-in", "", "input token address")
	quoteCmd.Flags().String("token-out", "", "output token address")
	quoteCmd.Flags().String("amount-in", "", "input amount in wei")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
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
