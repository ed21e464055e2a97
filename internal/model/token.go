package model

// Token is a launched token registry row. Identity fields are immutable
// after creation; cached metrics live in TokenWindowMetrics.
type Token struct {
	ChainID        uint64 `json:"chain_id"`
	Address        string `json:"address"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Decimals       uint8  `json:"decimals"`
	TotalSupply    string `json:"total_supply"`
	Creator        string `json:"creator"`
	Pool           string `json:"pool"`
	CreatedAt      uint64 `json:"created_at"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
}

// TokenMeta captures ERC20 metadata fetched from chain.
type TokenMeta struct {
	Address     string `json:"address"`
	Decimals    uint8  `json:"decimals"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	TotalSupply string `json:"total_supply"`
}
