package calc

import (
	"investBack/internal/models"
	"investBack/internal/plan/fsm"
)

// BreakingFeeBps is the penalty applied to amounts liquidated before
// maturity, in basis points (1%).
const BreakingFeeBps = 100

// Calculator derives liquidation and rollover breakdowns from a plan
// snapshot. It performs no I/O; the same numbers are re-derived server-side
// before an irreversible action is authorized.
type Calculator struct {
	// WithholdingTaxBps is the tax rate applied to liquidation amounts,
	// in basis points. Zero disables withholding.
	WithholdingTaxBps int64
}

// ValidateLiquidationAmount enforces the caller-side precondition
// 0 < amount <= currentPrincipal. The calculator itself never clamps.
func (c Calculator) ValidateLiquidationAmount(p models.Plan, amount int64) error {
	if amount <= 0 || amount > p.CurrentPrincipal {
		return models.ErrAmountOutOfRange
	}
	return nil
}

// ComputeLiquidation builds the payout breakdown for liquidating the
// requested amount. A full liquidation uses the entire current principal, so
// isFull=true with amount equal to the balance and isFull=false with the
// exact balance produce identical results. Early liquidation (plan still
// ACTIVE) incurs the breaking fee.
func (c Calculator) ComputeLiquidation(p models.Plan, amount int64, isFull bool) (models.LiquidationSummary, error) {
	if isFull {
		amount = p.CurrentPrincipal
	}
	if err := c.ValidateLiquidationAmount(p, amount); err != nil {
		return models.LiquidationSummary{}, err
	}

	var penalty int64
	if p.Status == fsm.StatusActive {
		penalty = applyBps(amount, BreakingFeeBps)
	}
	tax := applyBps(amount, c.WithholdingTaxBps)

	net := amount - penalty - tax
	if net < 0 {
		return models.LiquidationSummary{}, models.ErrNegativePayout
	}
	return models.LiquidationSummary{
		LiquidationAmount: amount,
		RoiPenalty:        penalty,
		WithholdingTax:    tax,
		NetPayout:         net,
	}, nil
}

// ProjectRollover splits principal and accrued ROI between the new plan and
// the payout. Neither option invents money: the two legs always sum to
// principal + accruedRoi.
func ProjectRollover(principal, accruedRoi int64, option models.RolloverType) (models.RolloverProjection, error) {
	switch option {
	case models.RolloverPrincipalAndInterest:
		return models.RolloverProjection{
			PrincipalToReinvest: principal + accruedRoi,
			InterestWithdrawn:   0,
		}, nil
	case models.RolloverPrincipalOnly:
		return models.RolloverProjection{
			PrincipalToReinvest: principal,
			InterestWithdrawn:   accruedRoi,
		}, nil
	default:
		return models.RolloverProjection{}, models.ErrInvalidRollover
	}
}

// applyBps computes amount * bps / 10000 with half-up rounding.
func applyBps(amount, bps int64) int64 {
	if bps == 0 {
		return 0
	}
	return (amount*bps + 5000) / 10000
}
