package balance

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/domain/shared"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func successResponse() *Response {
	return &Response{
		ExecutionResult: "SUCCESS",
		ExtraInformation: map[string][]Detail{
			"Level1": {
				{SegmentCode: "990300", Type: TypeStartBalance, PostedAmount: amount("100.50")},
				{SegmentCode: "990300", Type: TypeActivity, PostedAmount: amount("25")},
				{SegmentCode: "990300", Type: TypeEndBalance, PostedAmount: amount("125.50")},
				{SegmentCode: "123456", Type: TypeStartBalance, PostedAmount: amount("10")},
				{SegmentCode: "123456", Type: TypeActivity, PostedAmount: amount("-10")},
				{SegmentCode: "123456", Type: TypeEndBalance, PostedAmount: amount("0")},
			},
		},
		PeriodFrom: "2026-08-01",
		PeriodTo:   "2026-08-31",
	}
}

func testChart() chart.Chart {
	return chart.Chart{
		{Code: "990300", Name: "Platform Infrastructure"},
		{Code: "123456", Name: "Program Part A"},
	}
}

func TestFormatCSV(t *testing.T) {
	out, err := FormatCSV(successResponse(), testChart(), nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "AccountNumber,AccountName,PeriodStart,PeriodEnd,StartBalance,Activity,EndBalance", lines[0])
	assert.Equal(t, "990300,Platform Infrastructure,2026-08-01,2026-08-31,100.5,25,125.5", lines[1])
	assert.Equal(t, "123456,Program Part A,2026-08-01,2026-08-31,10,-10,0", lines[2])
}

func TestFormatCSV_SkipsAccountsMissingFromChart(t *testing.T) {
	resp := successResponse()
	resp.ExtraInformation["Level1"] = append(resp.ExtraInformation["Level1"],
		Detail{SegmentCode: "999999", Type: TypeEndBalance, PostedAmount: amount("1")})

	out, err := FormatCSV(resp, testChart(), nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "999999")
}

func TestFormatCSV_StatusError(t *testing.T) {
	resp := successResponse()
	resp.ExecutionResult = "FAILURE"

	_, err := FormatCSV(resp, testChart(), nil)
	assert.ErrorIs(t, err, shared.ErrUpstreamStatus)
}

func TestFormatCSV_SchemaErrors(t *testing.T) {
	t.Run("missing execution result", func(t *testing.T) {
		_, err := FormatCSV(&Response{}, testChart(), nil)
		assert.ErrorIs(t, err, shared.ErrUpstreamSchema)
	})

	t.Run("unexpected detail key", func(t *testing.T) {
		resp := successResponse()
		resp.ExtraInformation = map[string][]Detail{"Level2": nil}
		_, err := FormatCSV(resp, testChart(), nil)
		assert.ErrorIs(t, err, shared.ErrUpstreamSchema)
	})
}

func TestFormatCSV_UnknownTypeIgnored(t *testing.T) {
	resp := successResponse()
	resp.ExtraInformation["Level1"] = append(resp.ExtraInformation["Level1"],
		Detail{SegmentCode: "990300", Type: 9, PostedAmount: amount("77"), Description: "Mystery"})

	out, err := FormatCSV(resp, testChart(), nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "77")
}

func TestResponse_Empty(t *testing.T) {
	var nilResp *Response
	assert.True(t, nilResp.Empty())
	assert.True(t, (&Response{}).Empty())
	assert.True(t, (&Response{ExtraInformation: map[string][]Detail{"Level1": {}}}).Empty())
	assert.False(t, successResponse().Empty())
}
