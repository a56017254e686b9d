package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	GoogleAds  GoogleAdsConfig  `yaml:"google_ads"`
	Moz        MozConfig        `yaml:"moz"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Auth       AuthConfig       `yaml:"auth"`
	Sync       SyncConfig       `yaml:"sync"`
	Rules      RulesConfig      `yaml:"rules"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the configured host, defaulting to localhost.
func (s ServerConfig) GetHost() string {
	if s.Host == "" {
		return "localhost"
	}
	return s.Host
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings. Redis is optional: when Addr is empty
// the metrics cache degrades to DB-only and workers fall back to PG
// advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GoogleAdsConfig holds Google Ads API credentials
type GoogleAdsConfig struct {
	BaseURL        string `yaml:"base_url"`
	DeveloperToken string `yaml:"developer_token"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	RefreshToken   string `yaml:"refresh_token"`
	LoginCustomer  string `yaml:"login_customer_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for Google Ads calls
func (g GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// MozConfig holds Moz Links API credentials
type MozConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessID       string `yaml:"access_id"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for Moz calls
func (m MozConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// DataForSEOConfig holds DataForSEO API credentials
type DataForSEOConfig struct {
	BaseURL        string `yaml:"base_url"`
	Login          string `yaml:"login"`
	Password       string `yaml:"password"`
	LocationCode   int    `yaml:"location_code"`
	LanguageCode   string `yaml:"language_code"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for DataForSEO calls
func (d DataForSEOConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// AssistantConfig holds AI assistant settings. Provider is "anthropic",
// "bedrock" or "heuristic"; the heuristic agent is also the fallback when
// the configured provider has no credentials.
type AssistantConfig struct {
	Provider        string `yaml:"provider"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	BedrockModelID  string `yaml:"bedrock_model_id"`
	BedrockRegion   string `yaml:"bedrock_region"`
	MaxTokens       int    `yaml:"max_tokens"`
	MaxToolRounds   int    `yaml:"max_tool_rounds"`
	KnowledgeBucket string `yaml:"knowledge_bucket"`
	KnowledgePrefix string `yaml:"knowledge_prefix"`
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
	BaseURL            string `yaml:"base_url"`
}

// SyncConfig holds background refresh settings
type SyncConfig struct {
	Enabled               bool `yaml:"enabled"`
	SchedulerIntervalSecs int  `yaml:"scheduler_interval_seconds"`
	WorkerIntervalSecs    int  `yaml:"worker_interval_seconds"`
	HierarchyRefreshHours int  `yaml:"hierarchy_refresh_hours"`
	MetricsRefreshMinutes int  `yaml:"metrics_refresh_minutes"`
	MetricsBackfillDays   int  `yaml:"metrics_backfill_days"`
	MaxAttempts           int  `yaml:"max_attempts"`
}

// RulesConfig holds rule engine settings
type RulesConfig struct {
	Enabled             bool `yaml:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds"`
	DefaultCooldownMins int  `yaml:"default_cooldown_minutes"`
}

// MetricsConfig holds metrics cache settings
type MetricsConfig struct {
	FreshnessHours  int `yaml:"freshness_hours"`
	RedisTTLSeconds int `yaml:"redis_ttl_seconds"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com/v17"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 30
	}
	if cfg.Moz.BaseURL == "" {
		cfg.Moz.BaseURL = "https://lsapi.seomoz.com/v2"
	}
	if cfg.Moz.TimeoutSeconds == 0 {
		cfg.Moz.TimeoutSeconds = 30
	}
	if cfg.DataForSEO.BaseURL == "" {
		cfg.DataForSEO.BaseURL = "https://api.dataforseo.com/v3"
	}
	if cfg.DataForSEO.TimeoutSeconds == 0 {
		cfg.DataForSEO.TimeoutSeconds = 60
	}
	if cfg.DataForSEO.LocationCode == 0 {
		cfg.DataForSEO.LocationCode = 2840 // United States
	}
	if cfg.DataForSEO.LanguageCode == "" {
		cfg.DataForSEO.LanguageCode = "en"
	}
	if cfg.Assistant.Provider == "" {
		cfg.Assistant.Provider = "heuristic"
	}
	if cfg.Assistant.AnthropicModel == "" {
		cfg.Assistant.AnthropicModel = "claude-sonnet-4-20250514"
	}
	if cfg.Assistant.BedrockModelID == "" {
		cfg.Assistant.BedrockModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Assistant.MaxTokens == 0 {
		cfg.Assistant.MaxTokens = 2048
	}
	if cfg.Assistant.MaxToolRounds == 0 {
		cfg.Assistant.MaxToolRounds = 5
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "ads_console_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Sync.SchedulerIntervalSecs == 0 {
		cfg.Sync.SchedulerIntervalSecs = 60
	}
	if cfg.Sync.WorkerIntervalSecs == 0 {
		cfg.Sync.WorkerIntervalSecs = 15
	}
	if cfg.Sync.HierarchyRefreshHours == 0 {
		cfg.Sync.HierarchyRefreshHours = 6
	}
	if cfg.Sync.MetricsRefreshMinutes == 0 {
		cfg.Sync.MetricsRefreshMinutes = 60
	}
	if cfg.Sync.MetricsBackfillDays == 0 {
		cfg.Sync.MetricsBackfillDays = 30
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 3
	}
	if cfg.Rules.TickIntervalSeconds == 0 {
		cfg.Rules.TickIntervalSeconds = 300
	}
	if cfg.Rules.DefaultCooldownMins == 0 {
		cfg.Rules.DefaultCooldownMins = 720
	}
	if cfg.Metrics.FreshnessHours == 0 {
		cfg.Metrics.FreshnessHours = 6
	}
	if cfg.Metrics.RedisTTLSeconds == 0 {
		cfg.Metrics.RedisTTLSeconds = 300
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); v != "" {
		cfg.GoogleAds.DeveloperToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_CLIENT_ID"); v != "" {
		cfg.GoogleAds.ClientID = v
	}
	if v := os.Getenv("GOOGLE_ADS_CLIENT_SECRET"); v != "" {
		cfg.GoogleAds.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_ADS_REFRESH_TOKEN"); v != "" {
		cfg.GoogleAds.RefreshToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_LOGIN_CUSTOMER_ID"); v != "" {
		cfg.GoogleAds.LoginCustomer = v
	}
	if v := os.Getenv("MOZ_ACCESS_ID"); v != "" {
		cfg.Moz.AccessID = v
	}
	if v := os.Getenv("MOZ_SECRET_KEY"); v != "" {
		cfg.Moz.SecretKey = v
	}
	if v := os.Getenv("DATAFORSEO_LOGIN"); v != "" {
		cfg.DataForSEO.Login = v
	}
	if v := os.Getenv("DATAFORSEO_PASSWORD"); v != "" {
		cfg.DataForSEO.Password = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Assistant.AnthropicAPIKey = v
	}
	if v := os.Getenv("ASSISTANT_PROVIDER"); v != "" {
		cfg.Assistant.Provider = v
	}
	if v := os.Getenv("ASSISTANT_KNOWLEDGE_BUCKET"); v != "" {
		cfg.Assistant.KnowledgeBucket = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}

	return cfg, nil
}

// Validate checks that credentials required by enabled features are present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Sync.Enabled && c.GoogleAds.DeveloperToken == "" {
		return fmt.Errorf("google_ads.developer_token is required when sync is enabled")
	}
	if c.Auth.Enabled {
		if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
			return fmt.Errorf("auth.google_client_id and auth.google_client_secret are required when auth is enabled")
		}
	}
	return nil
}
