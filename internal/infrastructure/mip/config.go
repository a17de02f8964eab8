package mip

import (
	"errors"
	"time"
)

// Default endpoints for the MIP cloud accounting API.
const (
	DefaultLoginURL   = "https://login.mip.com/api/v1/sso/mipadv/login"
	DefaultAPIBaseURL = "https://api.mip.com/api"
)

// Config validation errors
var (
	ErrConfigMissingOrg     = errors.New("mip: organization is required")
	ErrConfigMissingSegment = errors.New("mip: segment name is required")
)

// Config holds connection settings for the upstream accounting API.
type Config struct {
	LoginURL   string
	APIBaseURL string
	Org        string
	Segment    string

	// FetchTimeout bounds one login/fetch request; FetchBudget is the
	// wall-clock retry budget around it (two attempts at the default
	// 4s connect timeout fit in 11s).
	FetchTimeout time.Duration
	FetchBudget  time.Duration

	// LogoutTimeout and LogoutBudget are deliberately more generous:
	// a missed logout locks the credentials out of the upstream
	// system, so logout gets around three attempts at 6s within 28s,
	// still inside the surrounding platform deadline.
	LogoutTimeout time.Duration
	LogoutBudget  time.Duration
}

// Validate checks required fields and fills in endpoint and timing
// defaults.
func (c *Config) Validate() error {
	if c.Org == "" {
		return ErrConfigMissingOrg
	}
	if c.Segment == "" {
		return ErrConfigMissingSegment
	}
	if c.LoginURL == "" {
		c.LoginURL = DefaultLoginURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 4 * time.Second
	}
	if c.FetchBudget == 0 {
		c.FetchBudget = 11 * time.Second
	}
	if c.LogoutTimeout == 0 {
		c.LogoutTimeout = 6 * time.Second
	}
	if c.LogoutBudget == 0 {
		c.LogoutBudget = 28 * time.Second
	}
	return nil
}
