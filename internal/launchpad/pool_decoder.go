package launchpad

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/model"
)

// PoolDecoder decodes weighted pool Swap and LiquidityAdded events.
type PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewPoolDecoder builds a weighted pool event decoder.
func NewPoolDecoder() (*PoolDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(poolABI.Events["Swap"].ID.Hex()):           "Swap",
		strings.ToLower(poolABI.Events["LiquidityAdded"].ID.Hex()): "LiquidityAdded",
	}

	return &PoolDecoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PoolDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *PoolDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}
	pool := common.HexToAddress(log.Address)

	meta, err := getPoolMeta(ctx, pool)
	if err != nil {
		return nil, err
	}

	switch name {
	case "Swap":
		decoded, err := d.decodeSwap(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, meta), nil
	case "LiquidityAdded":
		decoded, err := d.decodeLiquidityAdded(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, meta), nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func getPoolMeta(ctx DecodeContext, pool common.Address) (*model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(pool); ok {
			return &meta, nil
		}
	}
	if ctx.Chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}

	meta, err := FetchPoolMeta(callCtx, ctx.Chain, pool, ctx.TokenMetaCache, ctx.Logger)
	if err != nil {
		return nil, err
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(pool, meta)
	}
	return &meta, nil
}

func (d *PoolDecoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events["Swap"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	var indexed struct {
		Trader   common.Address
		TokenIn  common.Address
		TokenOut common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 3 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amountIn, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amountOut, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	spotPriceAfter, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Trader:         indexed.Trader.Hex(),
		TokenIn:        indexed.TokenIn.Hex(),
		TokenOut:       indexed.TokenOut.Hex(),
		AmountIn:       amountIn.String(),
		AmountOut:      amountOut.String(),
		SpotPriceAfter: spotPriceAfter.String(),
	}, nil
}

func (d *PoolDecoder) decodeLiquidityAdded(log model.LogRecord) (model.LiquidityAddedEventData, error) {
	event := d.poolABI.Events["LiquidityAdded"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.LiquidityAddedEventData{}, err
	}

	var indexed struct {
		Provider common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.LiquidityAddedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.LiquidityAddedEventData{}, err
	}
	if len(values) != 2 {
		return model.LiquidityAddedEventData{}, fmt.Errorf("unexpected liquidity values: %d", len(values))
	}

	amountA, err := asBigInt(values[0])
	if err != nil {
		return model.LiquidityAddedEventData{}, err
	}
	amountB, err := asBigInt(values[1])
	if err != nil {
		return model.LiquidityAddedEventData{}, err
	}

	return model.LiquidityAddedEventData{
		Provider: indexed.Provider.Hex(),
		AmountA:  amountA.String(),
		AmountB:  amountB.String(),
	}, nil
}
