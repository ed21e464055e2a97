package model

// SaleRecord is a fair-launch sale mirror row for storage. The authoritative
// state machine lives in the factory contract; this row tracks what the
// decoded event stream has shown so far.
type SaleRecord struct {
	ChainID      uint64 `json:"chain_id"`
	Address      string `json:"address"`
	Token        string `json:"token"`
	RaiseTarget  string `json:"raise_target"`
	SaleSupply   string `json:"sale_supply"`
	StartTime    uint64 `json:"start_time"`
	EndTime      uint64 `json:"end_time"`
	TotalRaised  string `json:"total_raised"`
	Contributors uint64 `json:"contributors"`
	Phase        string `json:"phase"`
	FinalizedAt  uint64 `json:"finalized_at"`
}
