package launchpad

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"launchscope/internal/model"
)

func TestPoolDecoderSwap(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	poolMetaCache := NewPoolMetaCache()
	poolMetaCache.Set(pool, model.PoolMeta{
		TokenA:     "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenB:     "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		WeightA:    "800000000000000000",
		WeightB:    "200000000000000000",
		SwapFeeBps: 30,
	})

	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	ctx := DecodeContext{
		PoolMetaCache: poolMetaCache,
		Logger:        zap.NewNop(),
	}

	trader := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenIn := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokenOut := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(100000),
		big.NewInt(23479),
		big.NewInt(4261000000),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(pool, poolABI.Events["Swap"].ID, data, []common.Hash{
		topicFromAddress(trader),
		topicFromAddress(tokenIn),
		topicFromAddress(tokenOut),
	})

	event, err := decoder.Decode(logRecord, ctx)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}

	if swap.AmountIn != "100000" || swap.AmountOut != "23479" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.SpotPriceAfter != "4261000000" {
		t.Fatalf("spot price mismatch: %s", swap.SpotPriceAfter)
	}
	if swap.Trader != trader.Hex() || swap.TokenIn != tokenIn.Hex() || swap.TokenOut != tokenOut.Hex() {
		t.Fatalf("address mismatch")
	}
	if event.PoolMeta == nil || event.PoolMeta.SwapFeeBps != 30 {
		t.Fatalf("pool meta mismatch")
	}
}

func TestPoolDecoderLiquidityAdded(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	poolMetaCache := NewPoolMetaCache()
	poolMetaCache.Set(pool, model.PoolMeta{
		TokenA:     "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenB:     "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		WeightA:    "500000000000000000",
		WeightB:    "500000000000000000",
		SwapFeeBps: 100,
	})

	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	ctx := DecodeContext{
		PoolMetaCache: poolMetaCache,
		Logger:        zap.NewNop(),
	}

	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events["LiquidityAdded"].Inputs.NonIndexed().Pack(
		big.NewInt(800000),
		big.NewInt(200000),
	)
	if err != nil {
		t.Fatalf("pack liquidity: %v", err)
	}

	logRecord := buildLogRecord(pool, poolABI.Events["LiquidityAdded"].ID, data, []common.Hash{
		topicFromAddress(provider),
	})

	event, err := decoder.Decode(logRecord, ctx)
	if err != nil {
		t.Fatalf("decode liquidity: %v", err)
	}

	added, ok := event.Decoded.(model.LiquidityAddedEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if added.Provider != provider.Hex() {
		t.Fatalf("provider mismatch")
	}
	if added.AmountA != "800000" || added.AmountB != "200000" {
		t.Fatalf("amounts mismatch: %+v", added)
	}
}

func TestFactoryDecoderLifecycle(t *testing.T) {
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	factory := common.HexToAddress("0x4444444444444444444444444444444444444444")
	token := common.HexToAddress("0x5555555555555555555555555555555555555555")
	pool := common.HexToAddress("0x6666666666666666666666666666666666666666")
	creator := common.HexToAddress("0x7777777777777777777777777777777777777777")
	sale := common.HexToAddress("0x8888888888888888888888888888888888888888")

	decoder, err := NewFactoryDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	ctx := DecodeContext{Logger: zap.NewNop()}

	createdData, err := factoryABI.Events["TokenCreated"].Inputs.NonIndexed().Pack(
		"Example Token",
		"EXT",
		big.NewInt(1_000_000),
	)
	if err != nil {
		t.Fatalf("pack token created: %v", err)
	}

	createdLog := buildLogRecord(factory, factoryABI.Events["TokenCreated"].ID, createdData, []common.Hash{
		topicFromAddress(token),
		topicFromAddress(pool),
		topicFromAddress(creator),
	})

	createdEvent, err := decoder.Decode(createdLog, ctx)
	if err != nil {
		t.Fatalf("decode token created: %v", err)
	}
	created, ok := createdEvent.Decoded.(model.TokenCreatedEventData)
	if !ok {
		t.Fatalf("token created type mismatch")
	}
	if created.Token != token.Hex() || created.Pool != pool.Hex() || created.Creator != creator.Hex() {
		t.Fatalf("address mismatch: %+v", created)
	}
	if created.Symbol != "EXT" || created.TotalSupply != "1000000" {
		t.Fatalf("payload mismatch: %+v", created)
	}
	if createdEvent.PoolMeta != nil {
		t.Fatalf("factory events carry no pool meta")
	}

	contributedData, err := factoryABI.Events["Contributed"].Inputs.NonIndexed().Pack(big.NewInt(5000))
	if err != nil {
		t.Fatalf("pack contributed: %v", err)
	}

	contributedLog := buildLogRecord(factory, factoryABI.Events["Contributed"].ID, contributedData, []common.Hash{
		topicFromAddress(sale),
		topicFromAddress(creator),
	})

	contributedEvent, err := decoder.Decode(contributedLog, ctx)
	if err != nil {
		t.Fatalf("decode contributed: %v", err)
	}
	contributed, ok := contributedEvent.Decoded.(model.ContributedEventData)
	if !ok {
		t.Fatalf("contributed type mismatch")
	}
	if contributed.Sale != sale.Hex() || contributed.Amount != "5000" {
		t.Fatalf("contributed mismatch: %+v", contributed)
	}

	finalizedData, err := factoryABI.Events["Finalized"].Inputs.NonIndexed().Pack(
		big.NewInt(900000),
		big.NewInt(700000),
		big.NewInt(450000),
	)
	if err != nil {
		t.Fatalf("pack finalized: %v", err)
	}

	finalizedLog := buildLogRecord(factory, factoryABI.Events["Finalized"].ID, finalizedData, []common.Hash{
		topicFromAddress(sale),
	})

	finalizedEvent, err := decoder.Decode(finalizedLog, ctx)
	if err != nil {
		t.Fatalf("decode finalized: %v", err)
	}
	finalized, ok := finalizedEvent.Decoded.(model.FinalizedEventData)
	if !ok {
		t.Fatalf("finalized type mismatch")
	}
	if finalized.TotalRaised != "900000" || finalized.LiquidityTokens != "700000" || finalized.LiquidityNative != "450000" {
		t.Fatalf("finalized mismatch: %+v", finalized)
	}

	refundedData, err := factoryABI.Events["Refunded"].Inputs.NonIndexed().Pack(big.NewInt(5000))
	if err != nil {
		t.Fatalf("pack refunded: %v", err)
	}

	refundedLog := buildLogRecord(factory, factoryABI.Events["Refunded"].ID, refundedData, []common.Hash{
		topicFromAddress(sale),
		topicFromAddress(creator),
	})

	refundedEvent, err := decoder.Decode(refundedLog, ctx)
	if err != nil {
		t.Fatalf("decode refunded: %v", err)
	}
	refunded, ok := refundedEvent.Decoded.(model.RefundedEventData)
	if !ok {
		t.Fatalf("refunded type mismatch")
	}
	if refunded.Contributor != creator.Hex() || refunded.Amount != "5000" {
		t.Fatalf("refunded mismatch: %+v", refunded)
	}
}

func TestDecodersRejectUnknownTopic(t *testing.T) {
	poolDecoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("pool decoder: %v", err)
	}
	factoryDecoder, err := NewFactoryDecoder()
	if err != nil {
		t.Fatalf("factory decoder: %v", err)
	}

	unknown := "0x0000000000000000000000000000000000000000000000000000000000000001"
	if poolDecoder.CanDecode(unknown) || factoryDecoder.CanDecode(unknown) {
		t.Fatalf("unknown topic accepted")
	}
	if poolDecoder.CanDecode("") || factoryDecoder.CanDecode("") {
		t.Fatalf("empty topic accepted")
	}
}

func buildLogRecord(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     8453,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
