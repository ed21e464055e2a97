package model

import "time"

// Trade side constants.
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Trade is an immutable trade log entry. Amounts and the resulting price are
// decimal strings (18-decimal fixed point for the price). Trades are append
// only; they are never mutated or deleted.
type Trade struct {
	ChainID     uint64 `json:"chain_id"`
	Pool        string `json:"pool"`
	Token       string `json:"token"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	Side        string `json:"side"`
	Trader      string `json:"trader"`
	TokenIn     string `json:"token_in"`
	TokenOut    string `json:"token_out"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	Price       string `json:"price"`
}

// TokenWindowMetrics stores aggregated per-token metrics for a time window.
// These are best-effort off-chain mirrors of on-chain activity.
type TokenWindowMetrics struct {
	ChainID        uint64
	Token          string
	Pool           string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	TradeCount     uint64
	BuyCount       uint64
	SellCount      uint64
	VolumeBase     string
	VolumeToken    string
	OpenPrice      string
	ClosePrice     string
	HighPrice      string
	LowPrice       string
	MarketCap      *string
}
