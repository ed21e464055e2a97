package launchpad

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/model"
)

// PoolMetaCache is a concurrency-safe cache of immutable pool parameters.
type PoolMetaCache struct {
	mu    sync.RWMutex
	pools map[common.Address]model.PoolMeta
}

func NewPoolMetaCache() *PoolMetaCache {
	return &PoolMetaCache{pools: make(map[common.Address]model.PoolMeta)}
}

func (c *PoolMetaCache) Get(pool common.Address) (model.PoolMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.pools[pool]
	return meta, ok
}

func (c *PoolMetaCache) Set(pool common.Address, meta model.PoolMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[pool] = meta
}

func (c *PoolMetaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// TokenMetaCache is a concurrency-safe cache of ERC20 token metadata.
type TokenMetaCache struct {
	mu     sync.RWMutex
	tokens map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{tokens: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(token common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.tokens[token]
	return meta, ok
}

func (c *TokenMetaCache) Set(token common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = meta
}

// SnapshotCache holds recent pool state snapshots with a TTL, bounding how
// stale a served quote can be relative to chain head.
type SnapshotCache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	states map[common.Address]model.PoolState
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[common.Address]model.PoolState),
	}
}

// Get returns a cached snapshot if it is younger than the TTL.
func (c *SnapshotCache) Get(pool common.Address) (model.PoolState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.states[pool]
	if !ok || c.now().Sub(state.FetchedAt) > c.ttl {
		return model.PoolState{}, false
	}
	return state, true
}

func (c *SnapshotCache) Set(pool common.Address, state model.PoolState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[pool] = state
}
