package launchpad

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"launchscope/internal/model"
)

// FactoryDecoder decodes launchpad factory events covering the token
// lifecycle from creation through the fair-launch sale.
type FactoryDecoder struct {
	factoryABI  abi.ABI
	topicToName map[string]string
}

// NewFactoryDecoder builds a factory event decoder.
func NewFactoryDecoder() (*FactoryDecoder, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(factoryABI.Events["TokenCreated"].ID.Hex()): "TokenCreated",
		strings.ToLower(factoryABI.Events["Contributed"].ID.Hex()):  "Contributed",
		strings.ToLower(factoryABI.Events["Finalized"].ID.Hex()):    "Finalized",
		strings.ToLower(factoryABI.Events["Refunded"].ID.Hex()):     "Refunded",
	}

	return &FactoryDecoder{
		factoryABI:  factoryABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *FactoryDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent. Factory events carry no
// pool metadata.
func (d *FactoryDecoder) Decode(log model.LogRecord, _ DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	switch name {
	case "TokenCreated":
		decoded, err := d.decodeTokenCreated(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, nil), nil
	case "Contributed":
		decoded, err := d.decodeContributed(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, nil), nil
	case "Finalized":
		decoded, err := d.decodeFinalized(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, nil), nil
	case "Refunded":
		decoded, err := d.decodeRefunded(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded, nil), nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func (d *FactoryDecoder) decodeTokenCreated(log model.LogRecord) (model.TokenCreatedEventData, error) {
	event := d.factoryABI.Events["TokenCreated"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.TokenCreatedEventData{}, err
	}

	var indexed struct {
		Token   common.Address
		Pool    common.Address
		Creator common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.TokenCreatedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.TokenCreatedEventData{}, err
	}
	if len(values) != 3 {
		return model.TokenCreatedEventData{}, fmt.Errorf("unexpected token created values: %d", len(values))
	}

	name, ok := values[0].(string)
	if !ok {
		return model.TokenCreatedEventData{}, fmt.Errorf("unexpected name type %T", values[0])
	}
	symbol, ok := values[1].(string)
	if !ok {
		return model.TokenCreatedEventData{}, fmt.Errorf("unexpected symbol type %T", values[1])
	}
	totalSupply, err := asBigInt(values[2])
	if err != nil {
		return model.TokenCreatedEventData{}, err
	}

	return model.TokenCreatedEventData{
		Token:       indexed.Token.Hex(),
		Pool:        indexed.Pool.Hex(),
		Creator:     indexed.Creator.Hex(),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: totalSupply.String(),
	}, nil
}

func (d *FactoryDecoder) decodeContributed(log model.LogRecord) (model.ContributedEventData, error) {
	event := d.factoryABI.Events["Contributed"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.ContributedEventData{}, err
	}

	var indexed struct {
		Sale        common.Address
		Contributor common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.ContributedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.ContributedEventData{}, err
	}
	if len(values) != 1 {
		return model.ContributedEventData{}, fmt.Errorf("unexpected contributed values: %d", len(values))
	}

	amount, err := asBigInt(values[0])
	if err != nil {
		return model.ContributedEventData{}, err
	}

	return model.ContributedEventData{
		Sale:        indexed.Sale.Hex(),
		Contributor: indexed.Contributor.Hex(),
		Amount:      amount.String(),
	}, nil
}

func (d *FactoryDecoder) decodeFinalized(log model.LogRecord) (model.FinalizedEventData, error) {
	event := d.factoryABI.Events["Finalized"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.FinalizedEventData{}, err
	}

	var indexed struct {
		Sale common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.FinalizedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.FinalizedEventData{}, err
	}
	if len(values) != 3 {
		return model.FinalizedEventData{}, fmt.Errorf("unexpected finalized values: %d", len(values))
	}

	totalRaised, err := asBigInt(values[0])
	if err != nil {
		return model.FinalizedEventData{}, err
	}
	liquidityTokens, err := asBigInt(values[1])
	if err != nil {
		return model.FinalizedEventData{}, err
	}
	liquidityNative, err := asBigInt(values[2])
	if err != nil {
		return model.FinalizedEventData{}, err
	}

	return model.FinalizedEventData{
		Sale:            indexed.Sale.Hex(),
		TotalRaised:     totalRaised.String(),
		LiquidityTokens: liquidityTokens.String(),
		LiquidityNative: liquidityNative.String(),
	}, nil
}

func (d *FactoryDecoder) decodeRefunded(log model.LogRecord) (model.RefundedEventData, error) {
	event := d.factoryABI.Events["Refunded"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.RefundedEventData{}, err
	}

	var indexed struct {
		Sale        common.Address
		Contributor common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.RefundedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.RefundedEventData{}, err
	}
	if len(values) != 1 {
		return model.RefundedEventData{}, fmt.Errorf("unexpected refunded values: %d", len(values))
	}

	amount, err := asBigInt(values[0])
	if err != nil {
		return model.RefundedEventData{}, err
	}

	return model.RefundedEventData{
		Sale:        indexed.Sale.Hex(),
		Contributor: indexed.Contributor.Hex(),
		Amount:      amount.String(),
	}, nil
}
