package chart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/domain/shared"
	"github.com/finops/coa-adapter/internal/infrastructure/mip"
)

type fakeUpstream struct {
	chart domain.Chart
}

func (f *fakeUpstream) Credentials(user, pass string) mip.Credentials {
	return mip.Credentials{Username: user, Password: pass, Org: "acme"}
}

func (f *fakeUpstream) FetchChart(ctx context.Context, creds mip.Credentials, hideInactive bool) domain.Chart {
	return f.chart
}

type fakeSecrets struct {
	err error
}

func (f *fakeSecrets) UpstreamCredentials(ctx context.Context) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "api-user", "api-pass", nil
}

// passthroughReconciler records what it was offered and returns either
// the upstream bytes or a canned snapshot.
type passthroughReconciler struct {
	snapshot []byte
	offered  []byte
	err      error
}

func (f *passthroughReconciler) Reconcile(ctx context.Context, key string, upstream []byte) ([]byte, error) {
	f.offered = upstream
	if f.err != nil {
		return nil, f.err
	}
	if len(upstream) > 0 {
		return upstream, nil
	}
	return f.snapshot, nil
}

func newTestService(upstream *fakeUpstream, rec *passthroughReconciler) *Service {
	processor := domain.NewProcessor(nil, "999999", "000000", zap.NewNop())
	return NewService(upstream, &fakeSecrets{}, rec, processor, "cache/chart-of-accounts.json", zap.NewNop())
}

func TestServiceChart(t *testing.T) {
	t.Run("processes the reconciled chart", func(t *testing.T) {
		upstream := &fakeUpstream{chart: domain.Chart{
			{Code: "12345600", Name: "Program A"},
			{Code: "12345601", Name: "Program A sub"},
			{Code: "65432100", Name: "Program B"},
		}}
		rec := &passthroughReconciler{}
		svc := newTestService(upstream, rec)

		got, err := svc.Chart(context.Background(), domain.Options{HideInactive: true})
		require.NoError(t, err)
		assert.Equal(t, domain.Chart{
			{Code: "123456", Name: "Program A"},
			{Code: "654321", Name: "Program B"},
		}, got)

		// the reconciler must be offered the raw fetch, not the
		// processed result
		var offered domain.Chart
		require.NoError(t, json.Unmarshal(rec.offered, &offered))
		assert.Len(t, offered, 3)
	})

	t.Run("serves the snapshot when upstream is down", func(t *testing.T) {
		snapshot, err := json.Marshal(domain.Chart{{Code: "12345600", Name: "Cached Program"}})
		require.NoError(t, err)
		rec := &passthroughReconciler{snapshot: snapshot}
		svc := newTestService(&fakeUpstream{}, rec)

		got, err := svc.Chart(context.Background(), domain.Options{HideInactive: true})
		require.NoError(t, err)
		assert.Equal(t, domain.Chart{{Code: "123456", Name: "Cached Program"}}, got)
		assert.Nil(t, rec.offered, "empty fetch must not be offered as new data")
	})

	t.Run("applies the limit after processing", func(t *testing.T) {
		upstream := &fakeUpstream{chart: domain.Chart{
			{Code: "11111100", Name: "One"},
			{Code: "22222200", Name: "Two"},
			{Code: "33333300", Name: "Three"},
		}}
		svc := newTestService(upstream, &passthroughReconciler{})

		got, err := svc.Chart(context.Background(), domain.Options{HideInactive: true, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "111111", got[0].Code)
	})

	t.Run("propagates reconciler errors", func(t *testing.T) {
		rec := &passthroughReconciler{err: shared.ErrNoData}
		svc := newTestService(&fakeUpstream{}, rec)

		_, err := svc.Chart(context.Background(), domain.Options{})
		assert.ErrorIs(t, err, shared.ErrNoData)
	})

	t.Run("propagates secret errors", func(t *testing.T) {
		processor := domain.NewProcessor(nil, "999999", "000000", zap.NewNop())
		svc := NewService(&fakeUpstream{}, &fakeSecrets{err: errors.New("ssm down")},
			&passthroughReconciler{}, processor, "key", zap.NewNop())

		_, err := svc.Chart(context.Background(), domain.Options{})
		assert.ErrorContains(t, err, "ssm down")
	})
}

func TestServiceTags(t *testing.T) {
	upstream := &fakeUpstream{chart: domain.Chart{
		{Code: "99030000", Name: "Community Outreach"},
	}}
	svc := newTestService(upstream, &passthroughReconciler{})

	tags, err := svc.Tags(context.Background(), domain.Options{HideInactive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Community Outreach / 990300"}, tags)
}
