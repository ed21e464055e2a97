package indexer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func newDiscoveryRunner(t *testing.T, factory common.Address, pools []common.Address) *Runner {
	t.Helper()
	r, err := NewRunner(RunConfig{Factory: factory, Pools: pools}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestRunnerDiscoversPoolFromTokenCreated(t *testing.T) {
	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	pool := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	creator := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	r := newDiscoveryRunner(t, factory, nil)
	if len(r.addresses) != 1 {
		t.Fatalf("expected only the factory to be watched, got %d addresses", len(r.addresses))
	}

	r.discoverPool(types.Log{
		Address: factory,
		Topics: []common.Hash{
			r.createdTopic,
			common.BytesToHash(token.Bytes()),
			common.BytesToHash(pool.Bytes()),
			common.BytesToHash(creator.Bytes()),
		},
		BlockNumber: 42,
	})

	if _, ok := r.watched[pool]; !ok {
		t.Fatalf("pool %s not added to the filter set", pool.Hex())
	}
	if len(r.addresses) != 2 {
		t.Fatalf("expected 2 watched addresses, got %d", len(r.addresses))
	}

	// A repeat event must not grow the filter set.
	r.discoverPool(types.Log{
		Address: factory,
		Topics: []common.Hash{
			r.createdTopic,
			common.BytesToHash(token.Bytes()),
			common.BytesToHash(pool.Bytes()),
			common.BytesToHash(creator.Bytes()),
		},
		BlockNumber: 43,
	})
	if len(r.addresses) != 2 {
		t.Fatalf("duplicate discovery grew the filter set to %d", len(r.addresses))
	}
}

func TestRunnerIgnoresForeignTokenCreated(t *testing.T) {
	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	other := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	pool := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	r := newDiscoveryRunner(t, factory, nil)
	r.discoverPool(types.Log{
		Address: other,
		Topics: []common.Hash{
			r.createdTopic,
			common.BytesToHash(pool.Bytes()),
			common.BytesToHash(pool.Bytes()),
		},
	})

	if _, ok := r.watched[pool]; ok {
		t.Fatalf("pool from a foreign emitter must not be watched")
	}
}

func TestRunnerSeedsConfiguredPools(t *testing.T) {
	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	pool := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	r := newDiscoveryRunner(t, factory, []common.Address{pool, pool})
	if len(r.addresses) != 2 {
		t.Fatalf("expected factory plus one pool, got %d addresses", len(r.addresses))
	}
}
