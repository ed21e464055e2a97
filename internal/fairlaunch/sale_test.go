package fairlaunch

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchscope/internal/model"
)

var (
	saleAddr = common.HexToAddress("0x8888888888888888888888888888888888888888")
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob      = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newTestSale() *Sale {
	start := time.Unix(1700000000, 0).UTC()
	return &Sale{
		Address:       saleAddr,
		Token:         common.HexToAddress("0x5555555555555555555555555555555555555555"),
		Pool:          common.HexToAddress("0x6666666666666666666666666666666666666666"),
		SaleSupply:    big.NewInt(700_000),
		Target:        big.NewInt(1_000),
		StartsAt:      start,
		EndsAt:        start.Add(24 * time.Hour),
		TotalRaised:   big.NewInt(0),
		Contributions: make(map[common.Address]*big.Int),
	}
}

func TestPhaseTransitions(t *testing.T) {
	sale := newTestSale()

	assert.Equal(t, PhasePending, sale.PhaseAt(sale.StartsAt.Add(-time.Hour)))
	assert.Equal(t, PhaseActive, sale.PhaseAt(sale.StartsAt))
	assert.Equal(t, PhaseActive, sale.PhaseAt(sale.EndsAt.Add(-time.Second)))
	assert.Equal(t, PhaseFailed, sale.PhaseAt(sale.EndsAt))

	sale.TotalRaised = big.NewInt(1_000)
	assert.Equal(t, PhaseSucceeded, sale.PhaseAt(sale.StartsAt.Add(time.Hour)))
	assert.Equal(t, PhaseSucceeded, sale.PhaseAt(sale.EndsAt.Add(time.Hour)))

	sale.Finalized = true
	assert.Equal(t, PhaseFinalized, sale.PhaseAt(sale.EndsAt.Add(time.Hour)))
}

func TestAllocationProRata(t *testing.T) {
	sale := newTestSale()
	sale.TotalRaised = big.NewInt(1_000)
	sale.Contributions[alice] = big.NewInt(600)
	sale.Contributions[bob] = big.NewInt(400)

	allocA, err := sale.Allocation(alice)
	require.NoError(t, err)
	allocB, err := sale.Allocation(bob)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(420_000), allocA)
	assert.Equal(t, big.NewInt(280_000), allocB)

	_, err = sale.Allocation(common.HexToAddress("0x9999999999999999999999999999999999999999"))
	require.ErrorIs(t, err, ErrNotContributor)
}

func TestAllocationFloorsDust(t *testing.T) {
	sale := newTestSale()
	sale.SaleSupply = big.NewInt(100)
	sale.TotalRaised = big.NewInt(3)
	sale.Contributions[alice] = big.NewInt(1)
	sale.Contributions[bob] = big.NewInt(2)

	allocA, err := sale.Allocation(alice)
	require.NoError(t, err)
	allocB, err := sale.Allocation(bob)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(33), allocA)
	assert.Equal(t, big.NewInt(66), allocB)

	// Dust stays unallocated rather than over-distributing.
	total := new(big.Int).Add(allocA, allocB)
	assert.Negative(t, total.Cmp(sale.SaleSupply))
}

func TestRefundAmount(t *testing.T) {
	sale := newTestSale()
	sale.TotalRaised = big.NewInt(500)
	sale.Contributions[alice] = big.NewInt(500)

	afterClose := sale.EndsAt.Add(time.Hour)

	refund, err := sale.RefundAmount(alice, afterClose)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), refund)

	_, err = sale.RefundAmount(bob, afterClose)
	require.ErrorIs(t, err, ErrNotContributor)

	_, err = sale.RefundAmount(alice, sale.StartsAt.Add(time.Hour))
	require.ErrorIs(t, err, ErrSaleNotFailed)
}

func TestBuildFinalizePlan(t *testing.T) {
	sale := newTestSale()
	bone := big.NewInt(1_000_000_000_000_000_000)
	sale.Target = new(big.Int).Mul(big.NewInt(10), bone)
	sale.TotalRaised = new(big.Int).Mul(big.NewInt(10), bone)

	liquiditySupply := new(big.Int).Mul(big.NewInt(200_000), bone)
	weightToken := new(big.Int).Mul(big.NewInt(8), big.NewInt(100_000_000_000_000_000))
	weightNative := new(big.Int).Mul(big.NewInt(2), big.NewInt(100_000_000_000_000_000))

	plan, err := sale.BuildFinalizePlan(liquiditySupply, weightToken, weightNative, sale.StartsAt.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, sale.TotalRaised, plan.LiquidityNative)
	assert.Equal(t, liquiditySupply, plan.LiquidityTokens)

	// (10/0.2)/(200000/0.8) = 0.0002 native per token.
	want := new(big.Int).Mul(big.NewInt(2), big.NewInt(100_000_000_000_000))
	assert.Equal(t, want, plan.InitialSpotPrice)

	sale.TotalRaised = big.NewInt(1)
	_, err = sale.BuildFinalizePlan(liquiditySupply, weightToken, weightNative, sale.EndsAt.Add(time.Hour))
	require.ErrorIs(t, err, ErrSaleNotSucceeded)
}

func TestBookApplyLifecycle(t *testing.T) {
	book := NewBook(nil)
	sale := newTestSale()
	book.Register(sale)

	contribute := func(contributor common.Address, amount int64) *model.TypedEvent {
		return &model.TypedEvent{
			EventName: "Contributed",
			Decoded: model.ContributedEventData{
				Sale:        saleAddr.Hex(),
				Contributor: contributor.Hex(),
				Amount:      big.NewInt(amount).String(),
			},
		}
	}

	require.NoError(t, book.Apply(contribute(alice, 600)))
	require.NoError(t, book.Apply(contribute(bob, 300)))
	require.NoError(t, book.Apply(contribute(bob, 100)))

	snapshot, ok := book.Get(saleAddr)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(1_000), snapshot.TotalRaised)
	assert.Equal(t, big.NewInt(600), snapshot.Contributions[alice])
	assert.Equal(t, big.NewInt(400), snapshot.Contributions[bob])

	phase, err := book.Phase(saleAddr, sale.StartsAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, phase)

	require.NoError(t, book.Apply(&model.TypedEvent{
		EventName: "Finalized",
		Decoded: model.FinalizedEventData{
			Sale:            saleAddr.Hex(),
			TotalRaised:     "1000",
			LiquidityTokens: "200000",
			LiquidityNative: "1000",
		},
	}))

	phase, err = book.Phase(saleAddr, sale.StartsAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, PhaseFinalized, phase)
}

func TestBookApplyRefund(t *testing.T) {
	book := NewBook(nil)
	sale := newTestSale()
	book.Register(sale)

	require.NoError(t, book.Apply(&model.TypedEvent{
		Decoded: model.ContributedEventData{
			Sale:        saleAddr.Hex(),
			Contributor: alice.Hex(),
			Amount:      "500",
		},
	}))
	require.NoError(t, book.Apply(&model.TypedEvent{
		Decoded: model.RefundedEventData{
			Sale:        saleAddr.Hex(),
			Contributor: alice.Hex(),
			Amount:      "500",
		},
	}))

	snapshot, ok := book.Get(saleAddr)
	require.True(t, ok)
	assert.Zero(t, snapshot.TotalRaised.Sign())
	assert.Zero(t, snapshot.Contributions[alice].Sign())

	err := book.Apply(&model.TypedEvent{
		Decoded: model.RefundedEventData{
			Sale:        saleAddr.Hex(),
			Contributor: alice.Hex(),
			Amount:      "1",
		},
	})
	require.Error(t, err)
}

func TestBookSkipsUnknownSale(t *testing.T) {
	book := NewBook(nil)

	require.NoError(t, book.Apply(&model.TypedEvent{
		Decoded: model.ContributedEventData{
			Sale:        saleAddr.Hex(),
			Contributor: alice.Hex(),
			Amount:      "500",
		},
	}))

	_, ok := book.Get(saleAddr)
	assert.False(t, ok)
}
