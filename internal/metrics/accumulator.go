package metrics

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"launchscope/internal/model"
)

// Accumulator holds aggregate values for one token's trade window.
type Accumulator struct {
	ChainID     uint64
	PoolAddress string
	PoolMeta    *model.PoolMeta
	BaseToken   string
	WindowStart uint64
	WindowEnd   uint64

	TradeCount  uint64
	BuyCount    uint64
	SellCount   uint64
	VolumeBase  *big.Int
	VolumeToken *big.Int

	OpenPrice  *big.Int
	HighPrice  *big.Int
	LowPrice   *big.Int
	ClosePrice *big.Int

	LastBlock  uint64
	LastTS     uint64
	FirstBlock uint64
}

func NewAccumulator(record model.TypedEventRecord, baseToken string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		PoolAddress: record.Address,
		PoolMeta:    record.PoolMeta,
		BaseToken:   strings.ToLower(baseToken),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeBase:  big.NewInt(0),
		VolumeToken: big.NewInt(0),
		LastBlock:   record.BlockNumber,
		LastTS:      record.Timestamp,
		FirstBlock:  record.BlockNumber,
	}
}

// TokenAddress returns the non-base pool token, the launched asset whose
// price the window tracks.
func (a *Accumulator) TokenAddress() string {
	if a.PoolMeta == nil {
		return ""
	}
	if strings.ToLower(a.PoolMeta.TokenA) == a.BaseToken {
		return a.PoolMeta.TokenB
	}
	return a.PoolMeta.TokenA
}

func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.LastBlock = record.BlockNumber
	}
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}

	switch strings.ToLower(record.EventName) {
	case "swap":
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	default:
		return nil
	}
}

// applySwap folds one trade into the window. A swap paying the base asset
// in is a buy of the launched token; the reverse is a sell. The price series
// uses the pool's post-trade spot price, base per token.
func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	price, err := parseBigInt(swap.SpotPriceAfter)
	if err != nil {
		return err
	}

	buy := strings.ToLower(swap.TokenIn) == a.BaseToken
	if buy {
		a.BuyCount++
		a.VolumeBase.Add(a.VolumeBase, amountIn)
		a.VolumeToken.Add(a.VolumeToken, amountOut)
	} else {
		a.SellCount++
		a.VolumeToken.Add(a.VolumeToken, amountIn)
		a.VolumeBase.Add(a.VolumeBase, amountOut)
	}
	a.TradeCount++

	if a.OpenPrice == nil {
		a.OpenPrice = new(big.Int).Set(price)
	}
	a.ClosePrice = new(big.Int).Set(price)
	if a.HighPrice == nil || price.Cmp(a.HighPrice) > 0 {
		a.HighPrice = new(big.Int).Set(price)
	}
	if a.LowPrice == nil || price.Cmp(a.LowPrice) < 0 {
		a.LowPrice = new(big.Int).Set(price)
	}

	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
