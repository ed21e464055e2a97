package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"launchscope/internal/model"
)

// Store provides Postgres persistence for launchpad data.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPools inserts or updates pool registry rows.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token_a, token_b, weight_a, weight_b, swap_fee_bps, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token_a = EXCLUDED.token_a,
				token_b = EXCLUDED.token_b,
				weight_a = EXCLUDED.weight_a,
				weight_b = EXCLUDED.weight_b,
				swap_fee_bps = EXCLUDED.swap_fee_bps,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.Address,
			pool.TokenA,
			pool.TokenB,
			pool.WeightA,
			pool.WeightB,
			int64(pool.SwapFeeBps),
			int64(pool.FirstSeenBlock),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// UpsertTokens inserts or updates launched token rows.
func (s *Store) UpsertTokens(ctx context.Context, tokens []model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (
				chain_id, token_address, name, symbol, decimals, total_supply, creator, pool_address, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (chain_id, token_address)
			DO UPDATE SET
				name = EXCLUDED.name,
				symbol = EXCLUDED.symbol,
				decimals = EXCLUDED.decimals,
				total_supply = EXCLUDED.total_supply,
				creator = EXCLUDED.creator,
				pool_address = EXCLUDED.pool_address,
				first_seen_block = LEAST(tokens.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(token.ChainID),
			token.Address,
			token.Name,
			token.Symbol,
			int16(token.Decimals),
			token.TotalSupply,
			token.Creator,
			token.Pool,
			int64(token.FirstSeenBlock),
		)
	}
	return s.sendBatch(ctx, batch, len(tokens))
}

// InsertTrades appends trade rows. The trade log is append-only, so rows
// that already exist for a (tx_hash, log_index) are skipped rather than
// rewritten.
func (s *Store) InsertTrades(ctx context.Context, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(`
			INSERT INTO trades (
				chain_id, pool_address, token_address, tx_hash, log_index, block_number, ts,
				trader, side, token_in, token_out, amount_in, amount_out, price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(trade.ChainID),
			trade.Pool,
			trade.Token,
			trade.TxHash,
			int64(trade.LogIndex),
			int64(trade.BlockNumber),
			int64(trade.Timestamp),
			trade.Trader,
			trade.Side,
			trade.TokenIn,
			trade.TokenOut,
			trade.AmountIn,
			trade.AmountOut,
			trade.Price,
		)
	}
	return s.sendBatch(ctx, batch, len(trades))
}

// UpsertTokenMetrics inserts or updates per-token window metrics.
func (s *Store) UpsertTokenMetrics(ctx context.Context, metrics []model.TokenWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO token_window_metrics (
				chain_id, token_address, pool_address, window_size_seconds, window_start_ts, window_end_ts,
				trade_count, buy_count, sell_count, volume_base, volume_token,
				open_price, high_price, low_price, close_price, market_cap, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (chain_id, token_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				trade_count = EXCLUDED.trade_count,
				buy_count = EXCLUDED.buy_count,
				sell_count = EXCLUDED.sell_count,
				volume_base = EXCLUDED.volume_base,
				volume_token = EXCLUDED.volume_token,
				open_price = EXCLUDED.open_price,
				high_price = EXCLUDED.high_price,
				low_price = EXCLUDED.low_price,
				close_price = EXCLUDED.close_price,
				market_cap = EXCLUDED.market_cap,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.Token,
			m.Pool,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.TradeCount),
			int64(m.BuyCount),
			int64(m.SellCount),
			m.VolumeBase,
			m.VolumeToken,
			m.OpenPrice,
			m.HighPrice,
			m.LowPrice,
			m.ClosePrice,
			m.MarketCap,
		)
	}
	return s.sendBatch(ctx, batch, len(metrics))
}

// UpsertSales inserts or updates fair-launch sale rows.
func (s *Store) UpsertSales(ctx context.Context, sales []model.SaleRecord) error {
	if len(sales) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sale := range sales {
		batch.Queue(`
			INSERT INTO sales (
				chain_id, sale_address, token_address, raise_target, sale_supply, start_time, end_time,
				total_raised, contributors, phase, finalized_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (chain_id, sale_address)
			DO UPDATE SET
				total_raised = EXCLUDED.total_raised,
				contributors = EXCLUDED.contributors,
				phase = EXCLUDED.phase,
				finalized_at = EXCLUDED.finalized_at,
				updated_at = now()
		`,
			int64(sale.ChainID),
			sale.Address,
			sale.Token,
			sale.RaiseTarget,
			sale.SaleSupply,
			int64(sale.StartTime),
			int64(sale.EndTime),
			sale.TotalRaised,
			int64(sale.Contributors),
			sale.Phase,
			int64(sale.FinalizedAt),
		)
	}
	return s.sendBatch(ctx, batch, len(sales))
}

// LoadState returns the last processed timestamp for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return ts, true, nil
}

// SaveState upserts the last processed timestamp for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, ts)
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				continue
			}
			return err
		}
	}
	return nil
}
