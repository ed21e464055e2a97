package model

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := LogRecord{
		ChainID:     8453,
		BlockNumber: 21000000,
		BlockHash:   "0xabc123",
		TxHash:      "0xdef456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
		Removed:     false,
		Timestamp:   1700000000,
		IngestedAt:  "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Trader:         "0x1111111111111111111111111111111111111111",
		TokenIn:        "0x2222222222222222222222222222222222222222",
		TokenOut:       "0x3333333333333333333333333333333333333333",
		AmountIn:       "12345678901234567890",
		AmountOut:      "9876543210",
		SpotPriceAfter: "5000000000000000000",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, field := range []string{"amount_in", "amount_out", "spot_price_after"} {
		if _, ok := decoded[field].(string); !ok {
			t.Fatalf("%s should be a string", field)
		}
	}
}

func TestPoolStateOriented(t *testing.T) {
	tokenA := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	other := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	state := PoolState{
		TokenA:   tokenA,
		TokenB:   tokenB,
		BalanceA: big.NewInt(100),
		BalanceB: big.NewInt(200),
		WeightA:  big.NewInt(800),
		WeightB:  big.NewInt(200),
	}

	balIn, wIn, balOut, wOut, ok := state.Oriented(tokenB, tokenA)
	if !ok {
		t.Fatalf("expected pair match")
	}
	if balIn.Int64() != 200 || wIn.Int64() != 200 || balOut.Int64() != 100 || wOut.Int64() != 800 {
		t.Fatalf("orientation mismatch: %v %v %v %v", balIn, wIn, balOut, wOut)
	}

	if _, _, _, _, ok := state.Oriented(tokenA, other); ok {
		t.Fatalf("expected pair mismatch for unknown token")
	}
	if _, _, _, _, ok := state.Oriented(tokenA, tokenA); ok {
		t.Fatalf("expected pair mismatch for same token")
	}
}
