package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"launchscope/internal/chain"
	"launchscope/internal/engine"
	"launchscope/internal/launchpad"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	rpcURL, _ := cmd.Flags().GetString("rpc")
	poolStr, _ := cmd.Flags().GetString("pool")
	tokenInStr, _ := cmd.Flags().GetString("token-in")
	tokenOutStr, _ := cmd.Flags().GetString("token-out")
	amountStr, _ := cmd.Flags().GetString("amount-in")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if rpcURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	for name, v := range map[string]string{
		"pool":      poolStr,
		"token-in":  tokenInStr,
		"token-out": tokenOutStr,
	} {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("invalid %s address: %q", name, v)
		}
	}
	amountIn, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return fmt.Errorf("invalid amount-in: %q", amountStr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	eng := engine.New(launchpad.NewChainSource(chainClient), logger)
	quote, err := eng.QuoteSwap(ctx, engine.QuoteRequest{
		Pool:     common.HexToAddress(poolStr),
		TokenIn:  common.HexToAddress(tokenInStr),
		TokenOut: common.HexToAddress(tokenOutStr),
		AmountIn: amountIn,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(quote)
}
