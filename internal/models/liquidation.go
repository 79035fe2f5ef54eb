package models

// LiquidationSummary is the payout breakdown shown before a liquidation is
// authorized. NetPayout is always LiquidationAmount - RoiPenalty -
// WithholdingTax and never negative; a computation that would go negative is a
// validation error upstream of this struct.
type LiquidationSummary struct {
	LiquidationAmount int64 `json:"liquidationAmount"`
	RoiPenalty        int64 `json:"roiPenalty"`
	WithholdingTax    int64 `json:"withholdingTax"`
	NetPayout         int64 `json:"netPayout"`
}

// RolloverProjection splits a matured position between the new plan and the
// payout, depending on the chosen rollover option.
type RolloverProjection struct {
	PrincipalToReinvest int64 `json:"principalToReinvest"`
	InterestWithdrawn   int64 `json:"interestWithdrawn"`
}
