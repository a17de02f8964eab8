package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Upstream UpstreamConfig
	Secrets  SecretsConfig
	Cache    CacheConfig
	Chart    ChartConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// UpstreamConfig holds settings for the upstream accounting API.
type UpstreamConfig struct {
	LoginURL   string
	APIBaseURL string
	Org        string
	// Segment selects which chart dimension the adapter serves,
	// e.g. "Program" or "GL".
	Segment string
	// FetchTimeout bounds a single login/fetch request; the retry
	// budget allows roughly two attempts at this timeout.
	FetchTimeout time.Duration
	// LogoutTimeout bounds a single logout request. Logout gets a
	// longer budget: a missed logout locks the credentials out of the
	// upstream system on the next login.
	LogoutTimeout time.Duration
	FetchBudget   time.Duration
	LogoutBudget  time.Duration
}

// SecretsConfig holds parameter-store settings for upstream credentials.
type SecretsConfig struct {
	SSMPath string
	Region  string
}

// CacheConfig holds object-store settings for the snapshot cache.
type CacheConfig struct {
	Bucket       string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	UseSSL       bool
	ChartKey     string
	BalanceKey   string
}

// ChartConfig holds chart processing policy.
type ChartConfig struct {
	OtherCode     string
	NoProgramCode string
	// OmitCodes are short codes excluded from every response.
	OmitCodes []string
	// Default option polarity; query-string options override per request.
	DefaultHideInactive  bool
	DefaultShowOther     bool
	DefaultShowNoProgram bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with COA_ prefix (e.g., COA_CACHE_BUCKET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("COA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans with a true default need explicit registration so an
	// absent key does not read as false.
	v.SetDefault("chart.default_hide_inactive", true)
	v.SetDefault("chart.default_show_no_program", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Upstream: UpstreamConfig{
			LoginURL:      v.GetString("upstream.login_url"),
			APIBaseURL:    v.GetString("upstream.api_base_url"),
			Org:           v.GetString("upstream.org"),
			Segment:       v.GetString("upstream.segment"),
			FetchTimeout:  v.GetDuration("upstream.fetch_timeout"),
			LogoutTimeout: v.GetDuration("upstream.logout_timeout"),
			FetchBudget:   v.GetDuration("upstream.fetch_budget"),
			LogoutBudget:  v.GetDuration("upstream.logout_budget"),
		},
		Secrets: SecretsConfig{
			SSMPath: v.GetString("secrets.ssm_path"),
			Region:  v.GetString("secrets.region"),
		},
		Cache: CacheConfig{
			Bucket:       v.GetString("cache.bucket"),
			Endpoint:     v.GetString("cache.endpoint"),
			Region:       v.GetString("cache.region"),
			AccessKey:    v.GetString("cache.access_key"),
			SecretKey:    v.GetString("cache.secret_key"),
			UsePathStyle: v.GetBool("cache.use_path_style"),
			UseSSL:       v.GetBool("cache.use_ssl"),
			ChartKey:     v.GetString("cache.chart_key"),
			BalanceKey:   v.GetString("cache.balance_key"),
		},
		Chart: ChartConfig{
			OtherCode:            v.GetString("chart.other_code"),
			NoProgramCode:        v.GetString("chart.no_program_code"),
			OmitCodes:            splitCodes(v.GetString("chart.omit_codes")),
			DefaultHideInactive:  v.GetBool("chart.default_hide_inactive"),
			DefaultShowOther:     v.GetBool("chart.default_show_other"),
			DefaultShowNoProgram: v.GetBool("chart.default_show_no_program"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitCodes parses a comma-separated code list, tolerating an empty
// value.
func splitCodes(codes string) []string {
	if codes == "" {
		return nil
	}
	parts := strings.Split(codes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "coa-adapter"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// The write timeout must cover a full upstream cycle including
		// the logout retry budget.
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Upstream.LoginURL == "" {
		cfg.Upstream.LoginURL = "https://login.mip.com/api/v1/sso/mipadv/login"
	}
	if cfg.Upstream.APIBaseURL == "" {
		cfg.Upstream.APIBaseURL = "https://api.mip.com/api"
	}
	if cfg.Upstream.Segment == "" {
		cfg.Upstream.Segment = "Program"
	}
	if cfg.Upstream.FetchTimeout == 0 {
		cfg.Upstream.FetchTimeout = 4 * time.Second
	}
	if cfg.Upstream.LogoutTimeout == 0 {
		cfg.Upstream.LogoutTimeout = 6 * time.Second
	}
	if cfg.Upstream.FetchBudget == 0 {
		cfg.Upstream.FetchBudget = 11 * time.Second
	}
	if cfg.Upstream.LogoutBudget == 0 {
		cfg.Upstream.LogoutBudget = 28 * time.Second
	}
	if cfg.Secrets.Region == "" {
		cfg.Secrets.Region = "us-east-1"
	}
	if cfg.Cache.Region == "" {
		cfg.Cache.Region = "us-east-1"
	}
	if cfg.Cache.ChartKey == "" {
		cfg.Cache.ChartKey = "cache/chart-of-accounts.json"
	}
	if cfg.Cache.BalanceKey == "" {
		cfg.Cache.BalanceKey = "cache/trial-balances.json"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Upstream.LogoutBudget >= c.HTTP.WriteTimeout {
		return fmt.Errorf("upstream.logout_budget (%s) must be shorter than http.write_timeout (%s) so logout can complete before the deadline",
			c.Upstream.LogoutBudget, c.HTTP.WriteTimeout)
	}

	if c.App.Env == "production" {
		if c.Upstream.Org == "" {
			return fmt.Errorf("upstream.org is required in production")
		}
		if c.Secrets.SSMPath == "" {
			return fmt.Errorf("secrets.ssm_path is required in production")
		}
		if c.Cache.Bucket == "" {
			return fmt.Errorf("cache.bucket is required in production")
		}
		if c.Chart.OtherCode == "" || c.Chart.NoProgramCode == "" {
			return fmt.Errorf("chart.other_code and chart.no_program_code are required in production")
		}
	}

	return nil
}
