package balance

import (
	"encoding/csv"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/domain/shared"
)

// detailKey is the only key the report understands inside
// extraInformation; anything else means the upstream model changed.
const detailKey = "Level1"

var csvHeader = []string{
	"AccountNumber",
	"AccountName",
	"PeriodStart",
	"PeriodEnd",
	"StartBalance",
	"Activity",
	"EndBalance",
}

// FormatCSV renders the trial-balance response as a CSV report, one
// row per account present in the chart. Accounts missing from the
// chart are logged and skipped rather than failing the whole report.
func FormatCSV(resp *Response, coa chart.Chart, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if resp == nil || resp.ExecutionResult == "" {
		return "", fmt.Errorf("%w: missing executionResult", shared.ErrUpstreamSchema)
	}
	if resp.ExecutionResult != "SUCCESS" {
		return "", fmt.Errorf("%w: executionResult %q", shared.ErrUpstreamStatus, resp.ExecutionResult)
	}

	var details []Detail
	for key, rows := range resp.ExtraInformation {
		if key != detailKey {
			return "", fmt.Errorf("%w: unexpected detail key %q", shared.ErrUpstreamSchema, key)
		}
		details = rows
	}

	// Collate buckets per account, keeping first-seen account order.
	balances := make(map[string]*accountBalance, len(details))
	order := make([]string, 0, len(details))
	for _, d := range details {
		b, ok := balances[d.SegmentCode]
		if !ok {
			b = &accountBalance{}
			balances[d.SegmentCode] = b
			order = append(order, d.SegmentCode)
		}
		switch d.Type {
		case TypeStartBalance:
			b.start = d.PostedAmount
		case TypeActivity:
			b.activity = d.PostedAmount
		case TypeEndBalance:
			b.end = d.PostedAmount
		default:
			logger.Error("Unknown balance entry type",
				zap.Int("type", d.Type),
				zap.String("description", d.Description))
		}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, code := range order {
		name, ok := coa.Get(code)
		if !ok {
			logger.Error("Account missing from chart of accounts", zap.String("code", code))
			continue
		}
		b := balances[code]
		row := []string{
			code,
			name,
			resp.PeriodFrom,
			resp.PeriodTo,
			b.start.String(),
			b.activity.String(),
			b.end.String(),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
