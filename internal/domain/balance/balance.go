// Package balance models trial-balance detail rows returned by the
// upstream accounting API and their CSV report rendering.
package balance

import (
	"github.com/shopspring/decimal"
)

// Detail entry types reported by the upstream trial-balance model.
const (
	TypeStartBalance = 1
	TypeActivity     = 2
	TypeEndBalance   = 3
)

// Detail is one summarized trial-balance row for an account segment.
type Detail struct {
	SegmentCode  string          `json:"DBDETAIL_SUM_SEGMENT_N0"`
	Type         int             `json:"DBDETAIL_SUM_TYPE"`
	PostedAmount decimal.Decimal `json:"DBDETAIL_SUM_POSTEDAMT"`
	Description  string          `json:"DBDETAIL_SUM_DESC"`
}

// Response is the upstream trial-balance payload plus the reporting
// period the client requested, attached for the report rows.
type Response struct {
	ExecutionResult  string              `json:"executionResult"`
	ExtraInformation map[string][]Detail `json:"extraInformation"`
	PeriodFrom       string              `json:"period_from"`
	PeriodTo         string              `json:"period_to"`
}

// Empty reports whether the response carries no detail rows at all.
func (r *Response) Empty() bool {
	if r == nil {
		return true
	}
	for _, details := range r.ExtraInformation {
		if len(details) > 0 {
			return false
		}
	}
	return true
}

// accountBalance collects the three bucket amounts for one account.
type accountBalance struct {
	start    decimal.Decimal
	activity decimal.Decimal
	end      decimal.Decimal
}
