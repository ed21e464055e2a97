package launchpad

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchscope/internal/chain"
	"launchscope/internal/model"
)

// FetchPoolState reads both balances, both weights and the swap fee of a
// weighted pool pinned to a single block, so the snapshot is internally
// consistent. A zero blockNumber pins to the latest block at call time.
func FetchPoolState(ctx context.Context, chainClient *chain.Client, pool common.Address, blockNumber uint64) (model.PoolState, error) {
	if chainClient == nil {
		return model.PoolState{}, fmt.Errorf("chain client is nil")
	}

	parsed, err := PoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	if blockNumber == 0 {
		latest, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return model.PoolState{}, fmt.Errorf("latest block: %w", err)
		}
		blockNumber = latest
	}
	blockPtr := new(big.Int).SetUint64(blockNumber)

	values, err := callMethod(ctx, chainClient, pool, parsed, "getCurrentTokens", blockPtr)
	if err != nil {
		return model.PoolState{}, err
	}
	tokens, err := asAddressSlice(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tokens: %w", err)
	}
	if len(tokens) != 2 {
		return model.PoolState{}, fmt.Errorf("expected 2 pool tokens, got %d", len(tokens))
	}

	balances := make([]*big.Int, 2)
	weights := make([]*big.Int, 2)
	for i, token := range tokens {
		values, err = callMethod(ctx, chainClient, pool, parsed, "getBalance", blockPtr, token)
		if err != nil {
			return model.PoolState{}, err
		}
		if balances[i], err = asBigInt(values[0]); err != nil {
			return model.PoolState{}, fmt.Errorf("balance %s: %w", token.Hex(), err)
		}

		values, err = callMethod(ctx, chainClient, pool, parsed, "getNormalizedWeight", blockPtr, token)
		if err != nil {
			return model.PoolState{}, err
		}
		if weights[i], err = asBigInt(values[0]); err != nil {
			return model.PoolState{}, fmt.Errorf("weight %s: %w", token.Hex(), err)
		}
	}

	values, err = callMethod(ctx, chainClient, pool, parsed, "getSwapFee", blockPtr)
	if err != nil {
		return model.PoolState{}, err
	}
	fee, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("swap fee: %w", err)
	}
	if !fee.IsUint64() || fee.Uint64() >= 10_000 {
		return model.PoolState{}, fmt.Errorf("swap fee out of range: %s", fee)
	}

	return model.PoolState{
		Pool:        pool,
		TokenA:      tokens[0],
		TokenB:      tokens[1],
		BalanceA:    balances[0],
		BalanceB:    balances[1],
		WeightA:     weights[0],
		WeightB:     weights[1],
		SwapFeeBps:  uint32(fee.Uint64()),
		BlockNumber: blockNumber,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// FetchPoolMeta loads immutable pool parameters and warms the token cache.
func FetchPoolMeta(ctx context.Context, chainClient *chain.Client, pool common.Address, tokenCache *TokenMetaCache, logger *zap.Logger) (model.PoolMeta, error) {
	state, err := FetchPoolState(ctx, chainClient, pool, 0)
	if err != nil {
		return model.PoolMeta{}, err
	}

	meta := model.PoolMeta{
		TokenA:     state.TokenA.Hex(),
		TokenB:     state.TokenB.Hex(),
		WeightA:    state.WeightA.String(),
		WeightB:    state.WeightB.String(),
		SwapFeeBps: state.SwapFeeBps,
	}

	if tokenCache != nil {
		log := logger
		if log == nil {
			log = zap.NewNop()
		}
		for _, token := range []common.Address{state.TokenA, state.TokenB} {
			if _, ok := tokenCache.Get(token); ok {
				continue
			}
			tokenMeta, err := FetchTokenMeta(ctx, chainClient, token, log)
			if err != nil {
				log.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
			}
			tokenCache.Set(token, tokenMeta)
		}
	}

	return meta, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Symbol and name are
// best effort; decimals and totalSupply failures are errors.
func FetchTokenMeta(ctx context.Context, chainClient *chain.Client, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if chainClient == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	parsed, err := erc20ABIInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, token, parsed, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	values, err = callMethod(ctx, chainClient, token, parsed, "totalSupply", nil)
	if err != nil {
		return meta, err
	}
	supply, err := asBigInt(values[0])
	if err != nil {
		return meta, err
	}
	meta.TotalSupply = supply.String()

	if values, err := callMethod(ctx, chainClient, token, parsed, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := callMethod(ctx, chainClient, token, parsed, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}
