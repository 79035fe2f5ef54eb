package calc

import (
	"errors"
	"testing"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/fsm"
)

func activePlan(balance int64) models.Plan {
	return models.Plan{
		ID:               "plan-1",
		Status:           fsm.StatusActive,
		Principal:        balance,
		CurrentPrincipal: balance,
		StartDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeLiquidationPartialWithBreakingFee(t *testing.T) {
	c := Calculator{}
	plan := activePlan(500000)

	got, err := c.ComputeLiquidation(plan, 200000, false)
	if err != nil {
		t.Fatalf("ComputeLiquidation: %v", err)
	}
	want := models.LiquidationSummary{
		LiquidationAmount: 200000,
		RoiPenalty:        2000,
		WithholdingTax:    0,
		NetPayout:         198000,
	}
	if got != want {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.NetPayout != got.LiquidationAmount-got.RoiPenalty-got.WithholdingTax {
		t.Fatal("payout identity violated")
	}
}

func TestComputeLiquidationIdempotent(t *testing.T) {
	c := Calculator{WithholdingTaxBps: 50}
	plan := activePlan(1000000)

	first, err := c.ComputeLiquidation(plan, 333333, false)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := c.ComputeLiquidation(plan, 333333, false)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical summaries, got %+v and %+v", first, second)
	}
}

func TestComputeLiquidationFullParity(t *testing.T) {
	c := Calculator{WithholdingTaxBps: 100}
	plan := activePlan(750000)

	full, err := c.ComputeLiquidation(plan, plan.CurrentPrincipal, true)
	if err != nil {
		t.Fatalf("full compute: %v", err)
	}
	exact, err := c.ComputeLiquidation(plan, plan.CurrentPrincipal, false)
	if err != nil {
		t.Fatalf("exact compute: %v", err)
	}
	if full != exact {
		t.Fatalf("full vs snapped-full mismatch: %+v vs %+v", full, exact)
	}
}

func TestComputeLiquidationNoFeeAtMaturity(t *testing.T) {
	c := Calculator{}
	plan := activePlan(500000)
	plan.Status = fsm.StatusMatured

	got, err := c.ComputeLiquidation(plan, 200000, false)
	if err != nil {
		t.Fatalf("ComputeLiquidation: %v", err)
	}
	if got.RoiPenalty != 0 {
		t.Fatalf("expected no breaking fee at maturity, got %d", got.RoiPenalty)
	}
	if got.NetPayout != 200000 {
		t.Fatalf("expected full payout, got %d", got.NetPayout)
	}
}

func TestValidateLiquidationAmount(t *testing.T) {
	c := Calculator{}
	plan := activePlan(500000)

	if err := c.ValidateLiquidationAmount(plan, 0); !errors.Is(err, models.ErrAmountOutOfRange) {
		t.Fatalf("expected range error for zero amount, got %v", err)
	}
	if err := c.ValidateLiquidationAmount(plan, 500001); !errors.Is(err, models.ErrAmountOutOfRange) {
		t.Fatalf("expected range error above balance, got %v", err)
	}
	if err := c.ValidateLiquidationAmount(plan, 500000); err != nil {
		t.Fatalf("exact balance must validate, got %v", err)
	}
	if _, err := c.ComputeLiquidation(plan, -100, false); !errors.Is(err, models.ErrAmountOutOfRange) {
		t.Fatalf("expected range error for negative amount, got %v", err)
	}
}

func TestProjectRolloverPrincipalAndInterest(t *testing.T) {
	cases := []struct{ principal, roi int64 }{
		{0, 0},
		{100000, 0},
		{0, 5000},
		{500000, 37500},
	}
	for _, tc := range cases {
		got, err := ProjectRollover(tc.principal, tc.roi, models.RolloverPrincipalAndInterest)
		if err != nil {
			t.Fatalf("ProjectRollover(%d, %d): %v", tc.principal, tc.roi, err)
		}
		if got.PrincipalToReinvest != tc.principal+tc.roi {
			t.Fatalf("expected reinvest %d, got %d", tc.principal+tc.roi, got.PrincipalToReinvest)
		}
		if got.InterestWithdrawn != 0 {
			t.Fatalf("expected no withdrawal, got %d", got.InterestWithdrawn)
		}
	}
}

func TestProjectRolloverPrincipalOnlyConservation(t *testing.T) {
	got, err := ProjectRollover(500000, 37500, models.RolloverPrincipalOnly)
	if err != nil {
		t.Fatalf("ProjectRollover: %v", err)
	}
	if got.PrincipalToReinvest != 500000 {
		t.Fatalf("expected original principal reinvested, got %d", got.PrincipalToReinvest)
	}
	if got.InterestWithdrawn != 37500 {
		t.Fatalf("expected accrued ROI withdrawn, got %d", got.InterestWithdrawn)
	}
	if got.PrincipalToReinvest+got.InterestWithdrawn != 500000+37500 {
		t.Fatal("rollover invented or destroyed money")
	}
}

func TestProjectRolloverUnknownOption(t *testing.T) {
	if _, err := ProjectRollover(100, 10, "EVERYTHING"); !errors.Is(err, models.ErrInvalidRollover) {
		t.Fatalf("expected invalid rollover error, got %v", err)
	}
}
