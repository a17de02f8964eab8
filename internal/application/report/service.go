// Package report produces the trial-balance CSV report for one
// accounting period.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/balance"
	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/infrastructure/mip"
)

const dateLayout = "2006-01-02"

// Upstream is the slice of the MIP client used for balance retrieval.
type Upstream interface {
	Credentials(user, pass string) mip.Credentials
	FetchBalances(ctx context.Context, creds mip.Credentials, from, to string) *balance.Response
}

// Secrets supplies the upstream API credentials.
type Secrets interface {
	UpstreamCredentials(ctx context.Context) (user, pass string, err error)
}

// Reconciler resolves the authoritative snapshot for a dataset key.
type Reconciler interface {
	Reconcile(ctx context.Context, key string, upstream []byte) ([]byte, error)
}

// ChartProvider supplies the processed chart the report rows are
// matched against.
type ChartProvider interface {
	Chart(ctx context.Context, opts chart.Options) (chart.Chart, error)
}

// Service renders per-account trial balances as CSV.
type Service struct {
	upstream   Upstream
	secrets    Secrets
	reconciler Reconciler
	charts     ChartProvider
	cacheKey   string
	logger     *zap.Logger
}

// NewService creates a report Service.
func NewService(
	upstream Upstream,
	secrets Secrets,
	reconciler Reconciler,
	charts ChartProvider,
	cacheKey string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		upstream:   upstream,
		secrets:    secrets,
		reconciler: reconciler,
		charts:     charts,
		cacheKey:   cacheKey,
		logger:     logger,
	}
}

// Period returns the calendar-month bounds containing the target date.
func Period(target time.Time) (from, to string) {
	first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, target.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}

// BalancesCSV fetches trial balances for the calendar month containing
// target, reconciles them against the snapshot, and renders the CSV
// report against the processed chart.
func (s *Service) BalancesCSV(ctx context.Context, target time.Time, opts chart.Options) (string, error) {
	coa, err := s.charts.Chart(ctx, opts)
	if err != nil {
		return "", err
	}

	user, pass, err := s.secrets.UpstreamCredentials(ctx)
	if err != nil {
		return "", err
	}

	from, to := Period(target)
	fetched := s.upstream.FetchBalances(ctx, s.upstream.Credentials(user, pass), from, to)

	var upstreamJSON []byte
	if !fetched.Empty() {
		upstreamJSON, err = json.Marshal(fetched)
		if err != nil {
			return "", fmt.Errorf("failed to encode balances: %w", err)
		}
	}

	resolved, err := s.reconciler.Reconcile(ctx, s.cacheKey, upstreamJSON)
	if err != nil {
		return "", err
	}

	var resp balance.Response
	if err := json.Unmarshal(resolved, &resp); err != nil {
		return "", fmt.Errorf("failed to decode balances snapshot: %w", err)
	}

	csv, err := balance.FormatCSV(&resp, coa, s.logger)
	if err != nil {
		return "", err
	}
	s.logger.Info("Trial-balance report rendered",
		zap.String("from", resp.PeriodFrom),
		zap.String("to", resp.PeriodTo))
	return csv, nil
}
