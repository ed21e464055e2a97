package fairlaunch

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/weightedmath"
)

// Phase is the lifecycle stage of a fair-launch sale.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseActive    Phase = "active"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	PhaseFinalized Phase = "finalized"
)

var (
	// ErrSaleNotFound is returned when the sale address is unknown.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrNotContributor is returned when an address has no recorded
	// contribution.
	ErrNotContributor = errors.New("no contribution recorded")

	// ErrSaleNotFailed is returned when a refund is requested for a sale
	// that did not fail.
	ErrSaleNotFailed = errors.New("sale has not failed")

	// ErrSaleNotSucceeded is returned when a finalize plan is requested
	// for a sale that did not reach its target.
	ErrSaleNotSucceeded = errors.New("sale has not succeeded")
)

// Sale holds the parameters and observed contribution state of one
// fair-launch sale.
type Sale struct {
	Address    common.Address
	Token      common.Address
	Pool       common.Address
	SaleSupply *big.Int
	Target     *big.Int
	StartsAt   time.Time
	EndsAt     time.Time

	TotalRaised   *big.Int
	Contributions map[common.Address]*big.Int
	Finalized     bool
}

// PhaseAt returns the sale phase as of the given time. A sale succeeds the
// moment contributions meet the target; otherwise it fails when the window
// closes.
func (s *Sale) PhaseAt(now time.Time) Phase {
	if s.Finalized {
		return PhaseFinalized
	}
	if now.Before(s.StartsAt) {
		return PhasePending
	}
	if s.TotalRaised != nil && s.Target != nil && s.TotalRaised.Cmp(s.Target) >= 0 {
		return PhaseSucceeded
	}
	if now.Before(s.EndsAt) {
		return PhaseActive
	}
	return PhaseFailed
}

// Allocation returns the contributor's pro-rata share of the sale supply,
// saleSupply * contributed / totalRaised with floor division. Dust from
// rounding stays unallocated.
func (s *Sale) Allocation(contributor common.Address) (*big.Int, error) {
	contributed, ok := s.Contributions[contributor]
	if !ok || contributed.Sign() == 0 {
		return nil, ErrNotContributor
	}
	if s.TotalRaised == nil || s.TotalRaised.Sign() == 0 {
		return nil, fmt.Errorf("total raised is zero")
	}

	allocation := new(big.Int).Mul(s.SaleSupply, contributed)
	return allocation.Quo(allocation, s.TotalRaised), nil
}

// RefundAmount returns what a contributor gets back from a failed sale,
// which is exactly what they put in.
func (s *Sale) RefundAmount(contributor common.Address, now time.Time) (*big.Int, error) {
	if s.PhaseAt(now) != PhaseFailed {
		return nil, ErrSaleNotFailed
	}
	contributed, ok := s.Contributions[contributor]
	if !ok || contributed.Sign() == 0 {
		return nil, ErrNotContributor
	}
	return new(big.Int).Set(contributed), nil
}

// FinalizePlan describes the pool seeding a successful sale would perform.
type FinalizePlan struct {
	LiquidityTokens  *big.Int
	LiquidityNative  *big.Int
	WeightToken      *big.Int
	WeightNative     *big.Int
	InitialSpotPrice *big.Int
}

// BuildFinalizePlan computes the liquidity seeding for a successful sale.
// The raised native balance pairs against the reserved liquidity supply at
// the given normalized weights, and the opening spot price of the token in
// native terms follows from those reserves.
func (s *Sale) BuildFinalizePlan(liquiditySupply, weightToken, weightNative *big.Int, now time.Time) (FinalizePlan, error) {
	if s.PhaseAt(now) != PhaseSucceeded {
		return FinalizePlan{}, ErrSaleNotSucceeded
	}

	spot, err := weightedmath.SpotPrice(s.TotalRaised, weightNative, liquiditySupply, weightToken)
	if err != nil {
		return FinalizePlan{}, fmt.Errorf("initial spot price: %w", err)
	}

	return FinalizePlan{
		LiquidityTokens:  new(big.Int).Set(liquiditySupply),
		LiquidityNative:  new(big.Int).Set(s.TotalRaised),
		WeightToken:      new(big.Int).Set(weightToken),
		WeightNative:     new(big.Int).Set(weightNative),
		InitialSpotPrice: spot,
	}, nil
}
