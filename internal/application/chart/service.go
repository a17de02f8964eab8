// Package chart orchestrates chart-of-accounts retrieval: upstream
// fetch, snapshot reconciliation, then processing into the published
// program list.
package chart

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/infrastructure/mip"
)

// Upstream is the slice of the MIP client used for chart retrieval.
type Upstream interface {
	Credentials(user, pass string) mip.Credentials
	FetchChart(ctx context.Context, creds mip.Credentials, hideInactive bool) chart.Chart
}

// Secrets supplies the upstream API credentials.
type Secrets interface {
	UpstreamCredentials(ctx context.Context) (user, pass string, err error)
}

// Reconciler resolves the authoritative snapshot for a dataset key.
type Reconciler interface {
	Reconcile(ctx context.Context, key string, upstream []byte) ([]byte, error)
}

// Service serves processed charts of accounts and their tag listing.
type Service struct {
	upstream   Upstream
	secrets    Secrets
	reconciler Reconciler
	processor  *chart.Processor
	cacheKey   string
	logger     *zap.Logger
}

// NewService creates a chart Service.
func NewService(
	upstream Upstream,
	secrets Secrets,
	reconciler Reconciler,
	processor *chart.Processor,
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
		processor:  processor,
		cacheKey:   cacheKey,
		logger:     logger,
	}
}

// Raw returns the reconciled raw chart before any processing. The
// upstream fetch always excludes inactive accounts so the snapshot is
// stable across request options; per-request visibility is decided by
// the processor.
func (s *Service) Raw(ctx context.Context) (chart.Chart, error) {
	user, pass, err := s.secrets.UpstreamCredentials(ctx)
	if err != nil {
		return nil, err
	}

	fetched := s.upstream.FetchChart(ctx, s.upstream.Credentials(user, pass), true)

	var upstreamJSON []byte
	if len(fetched) > 0 {
		upstreamJSON, err = json.Marshal(fetched)
		if err != nil {
			return nil, fmt.Errorf("failed to encode chart: %w", err)
		}
	}

	resolved, err := s.reconciler.Reconcile(ctx, s.cacheKey, upstreamJSON)
	if err != nil {
		return nil, err
	}

	var raw chart.Chart
	if err := json.Unmarshal(resolved, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode chart snapshot: %w", err)
	}
	return raw, nil
}

// Chart returns the processed chart for the given options.
func (s *Service) Chart(ctx context.Context, opts chart.Options) (chart.Chart, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}

	processed := s.processor.Process(raw, opts)
	if opts.Limit > 0 {
		processed = chart.Limit(processed, opts.Limit)
	}
	s.logger.Info("Chart processed",
		zap.Int("raw_accounts", len(raw)),
		zap.Int("programs", len(processed)))
	return processed, nil
}

// Tags returns the processed chart rendered as tag strings.
func (s *Service) Tags(ctx context.Context, opts chart.Options) ([]string, error) {
	processed, err := s.Chart(ctx, opts)
	if err != nil {
		return nil, err
	}
	return chart.Tags(processed), nil
}
