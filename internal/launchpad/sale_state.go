package launchpad

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/chain"
)

// SaleParams are the immutable parameters of a fair-launch sale contract.
type SaleParams struct {
	Sale        common.Address
	Token       common.Address
	Pool        common.Address
	RaiseTarget *big.Int
	SaleSupply  *big.Int
	StartTime   uint64
	EndTime     uint64
}

// FetchSaleParams reads the fixed sale parameters from the sale contract.
// They never change after deployment, so the call is not block pinned.
func FetchSaleParams(ctx context.Context, chainClient *chain.Client, sale common.Address) (SaleParams, error) {
	if chainClient == nil {
		return SaleParams{}, fmt.Errorf("chain client is nil")
	}

	parsed, err := SaleABI()
	if err != nil {
		return SaleParams{}, fmt.Errorf("parse sale abi: %w", err)
	}

	params := SaleParams{Sale: sale}

	values, err := callMethod(ctx, chainClient, sale, parsed, "token", nil)
	if err != nil {
		return SaleParams{}, err
	}
	if params.Token, err = asAddress(values[0]); err != nil {
		return SaleParams{}, fmt.Errorf("token: %w", err)
	}

	values, err = callMethod(ctx, chainClient, sale, parsed, "pool", nil)
	if err != nil {
		return SaleParams{}, err
	}
	if params.Pool, err = asAddress(values[0]); err != nil {
		return SaleParams{}, fmt.Errorf("pool: %w", err)
	}

	values, err = callMethod(ctx, chainClient, sale, parsed, "raiseTarget", nil)
	if err != nil {
		return SaleParams{}, err
	}
	if params.RaiseTarget, err = asBigInt(values[0]); err != nil {
		return SaleParams{}, fmt.Errorf("raise target: %w", err)
	}

	values, err = callMethod(ctx, chainClient, sale, parsed, "saleSupply", nil)
	if err != nil {
		return SaleParams{}, err
	}
	if params.SaleSupply, err = asBigInt(values[0]); err != nil {
		return SaleParams{}, fmt.Errorf("sale supply: %w", err)
	}

	values, err = callMethod(ctx, chainClient, sale, parsed, "startTime", nil)
	if err != nil {
		return SaleParams{}, err
	}
	start, err := asBigInt(values[0])
	if err != nil {
		return SaleParams{}, fmt.Errorf("start time: %w", err)
	}

	values, err = callMethod(ctx, chainClient, sale, parsed, "endTime", nil)
	if err != nil {
		return SaleParams{}, err
	}
	end, err := asBigInt(values[0])
	if err != nil {
		return SaleParams{}, fmt.Errorf("end time: %w", err)
	}

	if !start.IsUint64() || !end.IsUint64() {
		return SaleParams{}, fmt.Errorf("sale window out of range: %s..%s", start, end)
	}
	params.StartTime = start.Uint64()
	params.EndTime = end.Uint64()

	return params, nil
}
