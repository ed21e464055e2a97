package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is a weighted pool registry row for storage.
type Pool struct {
	ChainID        uint64 `json:"chain_id"`
	Address        string `json:"address"`
	TokenA         string `json:"token_a"`
	TokenB         string `json:"token_b"`
	WeightA        string `json:"weight_a"`
	WeightB        string `json:"weight_b"`
	SwapFeeBps     uint32 `json:"swap_fee_bps"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
}

// PoolMeta captures immutable pool parameters attached to decoded events.
type PoolMeta struct {
	TokenA     string `json:"token_a"`
	TokenB     string `json:"token_b"`
	WeightA    string `json:"weight_a"`
	WeightB    string `json:"weight_b"`
	SwapFeeBps uint32 `json:"swap_fee_bps"`
}

// PoolState is a reserve snapshot read atomically at one block. Balances and
// normalized weights are 18-decimal fixed-point integers; WeightA+WeightB is
// 1e18. Snapshots feed preview quotes only, never authoritative state.
type PoolState struct {
	Pool        common.Address
	TokenA      common.Address
	TokenB      common.Address
	BalanceA    *big.Int
	BalanceB    *big.Int
	WeightA     *big.Int
	WeightB     *big.Int
	SwapFeeBps  uint32
	BlockNumber uint64
	FetchedAt   time.Time
}

// Oriented returns balances and weights ordered for a tokenIn -> tokenOut
// swap. The last return is false when the pair does not match the pool.
func (s PoolState) Oriented(tokenIn, tokenOut common.Address) (balanceIn, weightIn, balanceOut, weightOut *big.Int, ok bool) {
	switch {
	case tokenIn == s.TokenA && tokenOut == s.TokenB:
		return s.BalanceA, s.WeightA, s.BalanceB, s.WeightB, true
	case tokenIn == s.TokenB && tokenOut == s.TokenA:
		return s.BalanceB, s.WeightB, s.BalanceA, s.WeightA, true
	default:
		return nil, nil, nil, nil, false
	}
}
