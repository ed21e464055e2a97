package launchpad

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/chain"
	"launchscope/internal/model"
)

// ChainSource reads pool snapshots directly from the chain, one consistent
// read pinned at the latest block per call.
type ChainSource struct {
	client *chain.Client
}

func NewChainSource(client *chain.Client) *ChainSource {
	return &ChainSource{client: client}
}

func (s *ChainSource) PoolState(ctx context.Context, pool common.Address) (model.PoolState, error) {
	state, err := FetchPoolState(ctx, s.client, pool, 0)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("fetch pool state %s: %w", pool.Hex(), err)
	}
	return state, nil
}

// CachedSource wraps another source with a TTL snapshot cache.
type CachedSource struct {
	inner interface {
		PoolState(ctx context.Context, pool common.Address) (model.PoolState, error)
	}
	cache *SnapshotCache
}

func NewCachedSource(inner *ChainSource, cache *SnapshotCache) *CachedSource {
	return &CachedSource{inner: inner, cache: cache}
}

func (s *CachedSource) PoolState(ctx context.Context, pool common.Address) (model.PoolState, error) {
	if state, ok := s.cache.Get(pool); ok {
		return state, nil
	}
	state, err := s.inner.PoolState(ctx, pool)
	if err != nil {
		return model.PoolState{}, err
	}
	s.cache.Set(pool, state)
	return state, nil
}
