package models

import "time"

// RolloverType selects what is reinvested when a matured plan rolls over.
type RolloverType string

const (
	RolloverPrincipalOnly        RolloverType = "PRINCIPAL_ONLY"
	RolloverPrincipalAndInterest RolloverType = "PRINCIPAL_AND_INTEREST"
)

// Plan is the authoritative investment position record. All monetary fields
// are in minor currency units. The server owns every mutation; the client only
// mirrors snapshots and scheduler-reported diffs.
type Plan struct {
	ID               string       `json:"id"`
	Status           string       `json:"status"`
	Principal        int64        `json:"principal"`
	CurrentPrincipal int64        `json:"currentPrincipal"`
	TotalAccruedROI  int64        `json:"totalAccruedRoi"`
	StartDate        time.Time    `json:"startDate"`
	MaturityDate     time.Time    `json:"maturityDate"`
	DurationMonths   int          `json:"duration"`
	PayoutFrequency  string       `json:"payoutFrequency"`
	NextROIDueAt     *time.Time   `json:"nextRoiDueAt,omitempty"`
	RolloverType     RolloverType `json:"rolloverType,omitempty"`
}

// Rollover reports whether a rollover preference is configured for the plan.
func (p Plan) Rollover() bool {
	return p.RolloverType != ""
}

// RolloverResult is returned by the rollover operation; the new plan carries a
// fresh id.
type RolloverResult struct {
	PlanID string `json:"id"`
	Status string `json:"status"`
}
