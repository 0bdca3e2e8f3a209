package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "DCPMON_"

// DefaultUserAgent is sent by the browser unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Storage   StorageConfig
	Records   RecordsConfig
	Notify    NotifyConfig
	Webhook   WebhookConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	// CredentialsFile is an optional YAML file holding the login values.
	CredentialsFile string

	// Timezone decides which calendar day a run belongs to.
	Timezone *time.Location
}

// ServerConfig controls the HTTP trigger surface.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Chromium instance launched per run.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent overrides the browser's user agent.
	UserAgent string

	// Stealth injects navigator.webdriver masking before navigation.
	Stealth bool // default: true

	// WindowSize is the viewport, "WIDTHxHEIGHT".
	WindowSize string // default: "1280x1696"

	// BlockedResourceTypes lists resource types to block.
	// default: ["Media", "Font"]
	BlockedResourceTypes []string
}

// ScraperConfig controls the login session.
type ScraperConfig struct {
	// ImplicitWait bounds each element lookup.
	ImplicitWait time.Duration // default: 10s

	// FetchTimeout bounds one whole run, from launch to notification.
	FetchTimeout time.Duration // default: 2m

	// ArtifactDir receives screenshots and page sources on failure.
	ArtifactDir string // default: os.TempDir()
}

// StorageConfig controls the S3-compatible object store.
type StorageConfig struct {
	Endpoint      string // default: "s3.amazonaws.com"
	AccessKey     string
	SecretKey     string
	Region        string // default: "ap-northeast-1"
	UseSSL        bool   // default: true
	Bucket        string
	PresignExpiry time.Duration // default: 1h
}

// Enabled reports whether a bucket is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// RecordsConfig controls the per-product record database.
type RecordsConfig struct {
	// Path is the SQLite file. Empty disables record keeping.
	Path string // default: "dcpmon.db"

	// HistoryDays is how many recorded dates the summary shows.
	HistoryDays int // default: 7
}

// NotifyConfig controls the LINE Messaging API client.
type NotifyConfig struct {
	URL     string // default: broadcast endpoint
	Token   string
	Timeout time.Duration // default: 30s
}

// Enabled reports whether a channel token is configured.
func (c NotifyConfig) Enabled() bool {
	return c.Token != ""
}

// WebhookConfig controls the run event webhook.
type WebhookConfig struct {
	// URL receives a signed POST after every run. Empty disables it.
	URL string

	// Secret signs the body with HMAC-SHA256 when set.
	Secret string

	Timeout time.Duration // default: 10s
	Retries int           // default: 3
}

// Enabled reports whether a webhook URL is configured.
func (c WebhookConfig) Enabled() bool {
	return c.URL != ""
}

// CacheConfig controls the in-memory cache behind the snapshot endpoint.
type CacheConfig struct {
	MaxEntries int           // default: 64
	TTL        time.Duration // default: 5m; 0 disables caching
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of run triggers.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 0.05
	Burst             int     // default: 1
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 8080),
			Mode: envOr("MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("HEADLESS", true),
			NoSandbox:            envBoolOr("NO_SANDBOX", true),
			BrowserBin:           envOr("BROWSER_BIN", ""),
			UserAgent:            envOr("USER_AGENT", DefaultUserAgent),
			Stealth:              envBoolOr("STEALTH", true),
			WindowSize:           envOr("WINDOW_SIZE", "1280x1696"),
			BlockedResourceTypes: envSliceOr("BLOCKED_RESOURCES", []string{"Media", "Font"}),
		},
		Scraper: ScraperConfig{
			ImplicitWait: envDurationOr("IMPLICIT_WAIT", 10*time.Second),
			FetchTimeout: envDurationOr("FETCH_TIMEOUT", 2*time.Minute),
			ArtifactDir:  envOr("ARTIFACT_DIR", os.TempDir()),
		},
		Storage: StorageConfig{
			Endpoint:      envOr("S3_ENDPOINT", "s3.amazonaws.com"),
			AccessKey:     envOr("S3_ACCESS_KEY", ""),
			SecretKey:     envOr("S3_SECRET_KEY", ""),
			Region:        envOr("S3_REGION", "ap-northeast-1"),
			UseSSL:        envBoolOr("S3_USE_SSL", true),
			Bucket:        envOr("DATA_BUCKET", ""),
			PresignExpiry: envDurationOr("PRESIGN_EXPIRY", time.Hour),
		},
		Records: RecordsConfig{
			Path:        envOr("RECORDS_DB", "dcpmon.db"),
			HistoryDays: envIntOr("HISTORY_DAYS", 7),
		},
		Notify: NotifyConfig{
			URL:     envOr("LINE_API_URL", "https://api.line.me/v2/bot/message/broadcast"),
			Token:   envOr("LINE_TOKEN", ""),
			Timeout: envDurationOr("NOTIFY_TIMEOUT", 30*time.Second),
		},
		Webhook: WebhookConfig{
			URL:     envOr("WEBHOOK_URL", ""),
			Secret:  envOr("WEBHOOK_SECRET", ""),
			Timeout: envDurationOr("WEBHOOK_TIMEOUT", 10*time.Second),
			Retries: envIntOr("WEBHOOK_RETRIES", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CACHE_MAX_ENTRIES", 64),
			TTL:        envDurationOr("CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("AUTH_ENABLED", true),
			APIKeys: envSliceOr("API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RATE_RPS", 0.05),
			Burst:             envIntOr("RATE_BURST", 1),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		CredentialsFile: envOr("CREDENTIALS_FILE", ""),
		Timezone:        envLocationOr("TIMEZONE", "Asia/Tokyo"),
	}
}

// --- helper functions ---

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

func envOr(key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envLocationOr(key, fallback string) *time.Location {
	name := envOr(key, fallback)
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	// Asia/Tokyo has no DST; a fixed zone is exact when tzdata is missing.
	return time.FixedZone("JST", 9*60*60)
}
