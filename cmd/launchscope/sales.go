package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"launchscope/internal/chain"
	"launchscope/internal/config"
	"launchscope/internal/fairlaunch"
	"launchscope/internal/launchpad"
	"launchscope/internal/model"
	"launchscope/internal/storage/postgres"
)

func runSales(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSales(cfgFile, cmd.Flags())
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
	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	logger.Info("sales start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("in", cfg.In),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	book := fairlaunch.NewBook(logger)
	finalizedAt := make(map[common.Address]uint64)
	var chainID uint64

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, applied int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("skipping malformed event line", zap.Error(err))
			continue
		}

		decoded, saleHex, err := decodeSaleEvent(record)
		if err != nil {
			logger.Warn("skipping sale event",
				zap.String("event", record.EventName),
				zap.String("tx_hash", record.TxHash),
				zap.Error(err),
			)
			continue
		}
		if decoded == nil {
			continue
		}
		chainID = record.ChainID

		if err := ensureSale(ctx, book, chainClient, saleHex, logger); err != nil {
			logger.Warn("sale registration failed",
				zap.String("sale", saleHex),
				zap.Error(err),
			)
		}

		if err := book.Apply(&model.TypedEvent{Decoded: decoded}); err != nil {
			return fmt.Errorf("apply %s at %s: %w", record.EventName, record.TxHash, err)
		}
		applied++

		if record.EventName == "Finalized" && common.IsHexAddress(saleHex) {
			finalizedAt[common.HexToAddress(saleHex)] = record.Timestamp
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	records := buildSaleRecords(book, chainID, finalizedAt, time.Now().UTC())
	if err := store.UpsertSales(ctx, records); err != nil {
		return fmt.Errorf("upsert sales: %w", err)
	}

	logger.Info("sales complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("sales", len(records)),
	)

	return nil
}

// decodeSaleEvent unpacks the payload of sale lifecycle events. Other event
// names return a nil payload so the caller can skip them.
func decodeSaleEvent(record model.TypedEventRecord) (interface{}, string, error) {
	switch record.EventName {
	case "Contributed":
		var data model.ContributedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return nil, "", err
		}
		return data, data.Sale, nil
	case "Finalized":
		var data model.FinalizedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return nil, "", err
		}
		return data, data.Sale, nil
	case "Refunded":
		var data model.RefundedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return nil, "", err
		}
		return data, data.Sale, nil
	default:
		return nil, "", nil
	}
}

// ensureSale registers the sale in the book if it is not tracked yet, reading
// its immutable parameters from the sale contract.
func ensureSale(ctx context.Context, book *fairlaunch.Book, chainClient *chain.Client, saleHex string, logger *zap.Logger) error {
	if !common.IsHexAddress(saleHex) {
		return fmt.Errorf("invalid sale address: %q", saleHex)
	}
	address := common.HexToAddress(saleHex)
	if _, ok := book.Get(address); ok {
		return nil
	}

	params, err := launchpad.FetchSaleParams(ctx, chainClient, address)
	if err != nil {
		return fmt.Errorf("fetch sale params: %w", err)
	}

	book.Register(&fairlaunch.Sale{
		Address:    params.Sale,
		Token:      params.Token,
		Pool:       params.Pool,
		SaleSupply: params.SaleSupply,
		Target:     params.RaiseTarget,
		StartsAt:   time.Unix(int64(params.StartTime), 0).UTC(),
		EndsAt:     time.Unix(int64(params.EndTime), 0).UTC(),
	})
	logger.Info("sale registered",
		zap.String("sale", params.Sale.Hex()),
		zap.String("token", params.Token.Hex()),
	)
	return nil
}

func buildSaleRecords(book *fairlaunch.Book, chainID uint64, finalizedAt map[common.Address]uint64, now time.Time) []model.SaleRecord {
	sales := book.Sales()
	records := make([]model.SaleRecord, 0, len(sales))
	for _, sale := range sales {
		var contributors uint64
		for _, amount := range sale.Contributions {
			if amount.Sign() > 0 {
				contributors++
			}
		}

		records = append(records, model.SaleRecord{
			ChainID:      chainID,
			Address:      sale.Address.Hex(),
			Token:        sale.Token.Hex(),
			RaiseTarget:  sale.Target.String(),
			SaleSupply:   sale.SaleSupply.String(),
			StartTime:    uint64(sale.StartsAt.Unix()),
			EndTime:      uint64(sale.EndsAt.Unix()),
			TotalRaised:  sale.TotalRaised.String(),
			Contributors: contributors,
			Phase:        string(sale.PhaseAt(now)),
			FinalizedAt:  finalizedAt[sale.Address],
		})
	}
	return records
}
