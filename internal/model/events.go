package model

// SwapEventData is the decoded pool Swap event payload.
type SwapEventData struct {
	Trader         string `json:"trader"`
	TokenIn        string `json:"token_in"`
	TokenOut       string `json:"token_out"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	SpotPriceAfter string `json:"spot_price_after"`
}

// LiquidityAddedEventData is the decoded LiquidityAdded event payload. For
// fair-launch pools this fires exactly once, at finalize.
type LiquidityAddedEventData struct {
	Provider string `json:"provider"`
	AmountA  string `json:"amount_a"`
	AmountB  string `json:"amount_b"`
}

// TokenCreatedEventData is the decoded factory TokenCreated event payload.
type TokenCreatedEventData struct {
	Token       string `json:"token"`
	Pool        string `json:"pool"`
	Creator     string `json:"creator"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply string `json:"total_supply"`
}

// ContributedEventData is the decoded fair-launch Contributed event payload.
type ContributedEventData struct {
	Sale        string `json:"sale"`
	Contributor string `json:"contributor"`
	Amount      string `json:"amount"`
}

// FinalizedEventData is the decoded fair-launch Finalized event payload.
type FinalizedEventData struct {
	Sale            string `json:"sale"`
	TotalRaised     string `json:"total_raised"`
	LiquidityTokens string `json:"liquidity_tokens"`
	LiquidityNative string `json:"liquidity_native"`
}

// RefundedEventData is the decoded fair-launch Refunded event payload.
type RefundedEventData struct {
	Sale        string `json:"sale"`
	Contributor string `json:"contributor"`
	Amount      string `json:"amount"`
}
