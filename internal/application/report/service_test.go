package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/balance"
	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/domain/shared"
	"github.com/finops/coa-adapter/internal/infrastructure/mip"
)

type fakeUpstream struct {
	resp *balance.Response
	from string
	to   string
}

func (f *fakeUpstream) Credentials(user, pass string) mip.Credentials {
	return mip.Credentials{Username: user, Password: pass, Org: "acme"}
}

func (f *fakeUpstream) FetchBalances(ctx context.Context, creds mip.Credentials, from, to string) *balance.Response {
	f.from, f.to = from, to
	if f.resp != nil {
		f.resp.PeriodFrom = from
		f.resp.PeriodTo = to
	}
	return f.resp
}

type fakeSecrets struct{}

func (fakeSecrets) UpstreamCredentials(ctx context.Context) (string, string, error) {
	return "api-user", "api-pass", nil
}

type passthroughReconciler struct {
	snapshot []byte
}

func (f *passthroughReconciler) Reconcile(ctx context.Context, key string, upstream []byte) ([]byte, error) {
	if len(upstream) > 0 {
		return upstream, nil
	}
	if len(f.snapshot) > 0 {
		return f.snapshot, nil
	}
	return nil, shared.ErrNoData
}

type fakeCharts struct {
	chart chart.Chart
}

func (f *fakeCharts) Chart(ctx context.Context, opts chart.Options) (chart.Chart, error) {
	return f.chart, nil
}

func amount(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestPeriod(t *testing.T) {
	from, to := Period(time.Date(2026, time.August, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-08-01", from)
	assert.Equal(t, "2026-08-31", to)

	from, to = Period(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-01", from)
	assert.Equal(t, "2026-02-28", to)

	from, to = Period(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", from)
	assert.Equal(t, "2024-02-29", to)
}

func TestBalancesCSV(t *testing.T) {
	coa := chart.Chart{{Code: "990300", Name: "Community Outreach"}}

	t.Run("renders the period report", func(t *testing.T) {
		upstream := &fakeUpstream{resp: &balance.Response{
			ExecutionResult: "SUCCESS",
			ExtraInformation: map[string][]balance.Detail{
				"Level1": {
					{SegmentCode: "990300", Type: balance.TypeStartBalance, PostedAmount: amount("100.50")},
					{SegmentCode: "990300", Type: balance.TypeActivity, PostedAmount: amount("25")},
					{SegmentCode: "990300", Type: balance.TypeEndBalance, PostedAmount: amount("125.50")},
				},
			},
		}}
		svc := NewService(upstream, fakeSecrets{}, &passthroughReconciler{}, &fakeCharts{chart: coa},
			"cache/trial-balances.json", zap.NewNop())

		target := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
		csv, err := svc.BalancesCSV(context.Background(), target, chart.Options{})
		require.NoError(t, err)

		assert.Equal(t, "2026-08-01", upstream.from)
		assert.Equal(t, "2026-08-31", upstream.to)
		assert.Contains(t, csv, "AccountNumber,AccountName,PeriodStart,PeriodEnd,StartBalance,Activity,EndBalance")
		assert.Contains(t, csv, "990300,Community Outreach,2026-08-01,2026-08-31,100.5,25,125.5")
	})

	t.Run("serves the snapshot when upstream is empty", func(t *testing.T) {
		snapshot, err := json.Marshal(&balance.Response{
			ExecutionResult: "SUCCESS",
			ExtraInformation: map[string][]balance.Detail{
				"Level1": {
					{SegmentCode: "990300", Type: balance.TypeEndBalance, PostedAmount: amount("10")},
				},
			},
			PeriodFrom: "2026-07-01",
			PeriodTo:   "2026-07-31",
		})
		require.NoError(t, err)

		svc := NewService(&fakeUpstream{}, fakeSecrets{}, &passthroughReconciler{snapshot: snapshot},
			&fakeCharts{chart: coa}, "cache/trial-balances.json", zap.NewNop())

		csv, err := svc.BalancesCSV(context.Background(), time.Now(), chart.Options{})
		require.NoError(t, err)
		assert.Contains(t, csv, "990300,Community Outreach,2026-07-01,2026-07-31,0,0,10")
	})

	t.Run("nothing anywhere is a no-data error", func(t *testing.T) {
		svc := NewService(&fakeUpstream{}, fakeSecrets{}, &passthroughReconciler{},
			&fakeCharts{chart: coa}, "cache/trial-balances.json", zap.NewNop())

		_, err := svc.BalancesCSV(context.Background(), time.Now(), chart.Options{})
		assert.ErrorIs(t, err, shared.ErrNoData)
	})

	t.Run("upstream failure status surfaces", func(t *testing.T) {
		upstream := &fakeUpstream{resp: &balance.Response{
			ExecutionResult: "FAILURE",
			ExtraInformation: map[string][]balance.Detail{
				"Level1": {{SegmentCode: "990300", Type: balance.TypeEndBalance, PostedAmount: amount("10")}},
			},
		}}
		svc := NewService(upstream, fakeSecrets{}, &passthroughReconciler{},
			&fakeCharts{chart: coa}, "cache/trial-balances.json", zap.NewNop())

		_, err := svc.BalancesCSV(context.Background(), time.Now(), chart.Options{})
		assert.ErrorIs(t, err, shared.ErrUpstreamStatus)
	})
}
