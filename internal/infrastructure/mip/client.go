// Package mip is the client for the upstream MIP cloud accounting API.
//
// The upstream system allows a single open session per credential set
// and rejects a second login while one is open, so every call path
// that obtains a token attempts exactly one matching logout, including
// on the error path, with logout failures logged and never raised.
package mip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/balance"
	"github.com/finops/coa-adapter/internal/domain/chart"
	"github.com/finops/coa-adapter/internal/domain/shared"
)

// maxResponseSize is the maximum allowed upstream response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// authHeader carries the session token on authenticated calls.
const authHeader = "Authorization-Token"

const (
	segmentsPath = "/coa/segments"
	accountsPath = "/coa/segments/accounts"
	balancesPath = "/model/dispbal/GetAccountBalances"
	logoutPath   = "/security/logout"
)

// Client performs authenticated round trips against the upstream API.
// It holds no per-request state and is safe to reuse across requests.
type Client struct {
	cfg          Config
	fetchClient  *http.Client
	logoutClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:          cfg,
		fetchClient:  &http.Client{Timeout: cfg.FetchTimeout},
		logoutClient: &http.Client{Timeout: cfg.LogoutTimeout},
		logger:       logger,
	}, nil
}

// Credentials builds session credentials from secret values and the
// configured organization.
func (c *Client) Credentials(user, pass string) Credentials {
	return Credentials{Username: user, Password: pass, Org: c.cfg.Org}
}

// Login authenticates against the upstream API and returns the session
// token. Transient failures are retried within the fetch budget; an
// authentication rejection is not retried.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	c.logger.Info("Logging in to upstream API")

	body, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("mip: encode credentials: %w", err)
	}

	var token string
	op := func() error {
		data, err := c.do(ctx, c.fetchClient, http.MethodPost, c.cfg.LoginURL, "", body)
		if err != nil {
			return err
		}
		var lr loginResponse
		if err := json.Unmarshal(data, &lr); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: malformed login response: %v", shared.ErrAuth, err))
		}
		if lr.AccessToken == "" {
			return backoff.Permanent(fmt.Errorf("%w: login response missing AccessToken", shared.ErrAuth))
		}
		token = lr.AccessToken
		return nil
	}

	if err := c.retry(ctx, "login", op); err != nil {
		return "", err
	}
	return token, nil
}

// SegmentID resolves the segment name to its upstream identifier.
func (c *Client) SegmentID(ctx context.Context, token, name string) (int, error) {
	c.logger.Info("Getting chart segments")

	var sr segmentsResponse
	if err := c.getJSON(ctx, segmentsPath, token, &sr); err != nil {
		return 0, err
	}
	for _, s := range sr.Segments {
		if s.Title == name {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: segment %q", shared.ErrNotFound, name)
}

// Accounts fetches all accounts, filtered to the given segment and,
// when hideInactive is set, to active status. Order follows the
// upstream listing.
func (c *Client) Accounts(ctx context.Context, token string, segmentID int, hideInactive bool) (chart.Chart, error) {
	c.logger.Info("Getting chart of accounts", zap.Int("segment_id", segmentID))

	var ar accountsResponse
	if err := c.getJSON(ctx, accountsPath, token, &ar); err != nil {
		return nil, err
	}

	accounts := make(chart.Chart, 0, len(ar.Accounts))
	for _, a := range ar.Accounts {
		if a.SegmentID != segmentID {
			continue
		}
		if hideInactive && a.Status != accountStatusActive {
			c.logger.Info("Hiding inactive account", zap.String("title", a.Title))
			continue
		}
		accounts = append(accounts, chart.Entry{Code: a.Code, Name: a.Title})
	}
	return accounts, nil
}

// Balances fetches trial-balance detail rows for the given date range.
func (c *Client) Balances(ctx context.Context, token, from, to string) (*balance.Response, error) {
	c.logger.Info("Getting trial balances",
		zap.String("from", from), zap.String("to", to))

	body, err := json.Marshal(balancesRequest{DateFrom: from, DateTo: to})
	if err != nil {
		return nil, err
	}

	var resp balance.Response
	op := func() error {
		data, err := c.do(ctx, c.fetchClient, http.MethodPost, c.cfg.APIBaseURL+balancesPath, token, body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", shared.ErrUpstreamSchema, err))
		}
		return nil
	}
	if err := c.retry(ctx, "balances", op); err != nil {
		return nil, err
	}

	resp.PeriodFrom = from
	resp.PeriodTo = to
	return &resp, nil
}

// Logout ends the session. Failures are logged and swallowed so they
// never mask the primary result; the fibonacci budget spends extra
// time here because a missed logout locks the credentials out.
func (c *Client) Logout(ctx context.Context, token string) {
	c.logger.Info("Logging out of upstream API")

	op := func() error {
		_, err := c.do(ctx, c.logoutClient, http.MethodPost, c.cfg.APIBaseURL+logoutPath, token, nil)
		return err
	}
	policy := backoff.WithContext(newFibonacciBackOff(c.cfg.LogoutBudget), ctx)
	if err := backoff.RetryNotify(op, policy, c.notifyRetry("logout")); err != nil {
		c.logger.Error("Error logging out of upstream API", zap.Error(err))
	}
}

// FetchChart runs one full login/fetch/logout session and returns the
// raw chart for the configured segment. Fetch errors after a
// successful login are logged and produce an empty chart so the caller
// can fall back to its cache; logout is attempted whenever login
// succeeded.
func (c *Client) FetchChart(ctx context.Context, creds Credentials, hideInactive bool) chart.Chart {
	token, err := c.Login(ctx, creds)
	if err != nil {
		c.logger.Error("Upstream login failed", zap.Error(err))
		return nil
	}
	defer c.Logout(ctx, token)

	segmentID, err := c.SegmentID(ctx, token, c.cfg.Segment)
	if err != nil {
		c.logger.Error("Error interacting with upstream API", zap.Error(err))
		return nil
	}

	accounts, err := c.Accounts(ctx, token, segmentID, hideInactive)
	if err != nil {
		c.logger.Error("Error interacting with upstream API", zap.Error(err))
		return nil
	}
	return accounts
}

// FetchBalances runs one full login/fetch/logout session for trial
// balances over the given date range, with the same guaranteed-logout
// contract as FetchChart.
func (c *Client) FetchBalances(ctx context.Context, creds Credentials, from, to string) *balance.Response {
	token, err := c.Login(ctx, creds)
	if err != nil {
		c.logger.Error("Upstream login failed", zap.Error(err))
		return nil
	}
	defer c.Logout(ctx, token)

	resp, err := c.Balances(ctx, token, from, to)
	if err != nil {
		c.logger.Error("Error interacting with upstream API", zap.Error(err))
		return nil
	}
	return resp
}

// getJSON performs an authenticated GET with retry and decodes the
// JSON response.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	op := func() error {
		data, err := c.do(ctx, c.fetchClient, http.MethodGet, c.cfg.APIBaseURL+path, token, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", shared.ErrUpstreamSchema, err))
		}
		return nil
	}
	return c.retry(ctx, path, op)
}

// do performs one HTTP round trip. Network failures and 5xx responses
// come back as retryable errors; 4xx responses are permanent because
// retrying a rejected request cannot succeed.
func (c *Client) do(ctx context.Context, client *http.Client, method, url, token string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("mip: failed to create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(authHeader, token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mip: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mip: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("mip: HTTP %d from %s", resp.StatusCode, url)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d from %s", shared.ErrAuth, resp.StatusCode, url))
	}
	return data, nil
}

// retry wraps an operation in the exponential fetch policy.
func (c *Client) retry(ctx context.Context, call string, op backoff.Operation) error {
	policy := backoff.WithContext(newFetchBackOff(c.cfg.FetchBudget), ctx)
	return backoff.RetryNotify(op, policy, c.notifyRetry(call))
}

func (c *Client) notifyRetry(call string) backoff.Notify {
	return func(err error, wait time.Duration) {
		c.logger.Warn("Retrying upstream call",
			zap.String("call", call),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}
}
