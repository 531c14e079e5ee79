package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Portals   PortalsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Cache     CacheConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// TrustedProxies lists the proxy CIDRs/IPs whose forwarding headers are
	// honoured when resolving the client IP. Empty trusts none.
	TrustedProxies []string
}

// BrowserConfig controls the per-request Chromium instance.
type BrowserConfig struct {
	// Bin is the Chromium binary path.
	Bin string // default: "/usr/bin/google-chrome"

	Headless  bool // default: true
	NoSandbox bool // default: true

	WindowWidth  int // default: 1920
	WindowHeight int // default: 1080

	// UserAgent is sent on every request made by the browser.
	UserAgent string

	// AcceptLanguage is set as an extra header on the portal pages.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Stealth injects go-rod/stealth evasions before the first navigation.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types the hijack router fails.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig holds the bounds used by the portal flows.
type ScraperConfig struct {
	// PageLoadTimeout bounds navigation and document readiness.
	PageLoadTimeout time.Duration // default: 30s

	// ElementTimeout bounds the wait for a required form field.
	ElementTimeout time.Duration // default: 20s

	// LoginTimeout bounds the wait for the login form to go away after submit.
	LoginTimeout time.Duration // default: 10s

	// ResultTimeout bounds the wait for window-sticker results to render.
	ResultTimeout time.Duration // default: 10s

	// RequestTimeout is the hard deadline for one whole pipeline run.
	RequestTimeout time.Duration // default: 120s
}

// Credentials is a portal username/password pair.
type Credentials struct {
	Username string
	Password string
}

// PortalsConfig holds the default credentials of each portal.
type PortalsConfig struct {
	Carfax   Credentials
	Velocity Credentials
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty disables authentication.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per client.
	Burst int // default: 5
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	AllowOrigins []string      // default: ["*"]
	MaxAge       time.Duration // default: 12h
}

// CacheConfig controls the lookup result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 500
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool // default: true
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DefaultUserAgent is the desktop user agent presented to the portals.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Load reads configuration from environment variables with sane defaults.
// It is called once at process start.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envOr("VDS_HOST", "0.0.0.0"),
			Port:           envIntOr("PORT", 5000),
			Mode:           envOr("VDS_MODE", "release"),
			TrustedProxies: envSliceOr("VDS_TRUSTED_PROXIES", nil),
		},
		Browser: BrowserConfig{
			Bin:            envOr("GOOGLE_CHROME_BIN", "/usr/bin/google-chrome"),
			Headless:       envBoolOr("VDS_HEADLESS", true),
			NoSandbox:      envBoolOr("VDS_NO_SANDBOX", true),
			WindowWidth:    envIntOr("VDS_WINDOW_WIDTH", 1920),
			WindowHeight:   envIntOr("VDS_WINDOW_HEIGHT", 1080),
			UserAgent:      envOr("VDS_USER_AGENT", DefaultUserAgent),
			AcceptLanguage: envOr("VDS_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Stealth:        envBoolOr("VDS_STEALTH", false),
			BlockedResourceTypes: envSliceOr("VDS_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			PageLoadTimeout: envDurationOr("VDS_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ElementTimeout:  envDurationOr("VDS_ELEMENT_TIMEOUT", 20*time.Second),
			LoginTimeout:    envDurationOr("VDS_LOGIN_TIMEOUT", 10*time.Second),
			ResultTimeout:   envDurationOr("VDS_RESULT_TIMEOUT", 10*time.Second),
			RequestTimeout:  envDurationOr("VDS_REQUEST_TIMEOUT", 120*time.Second),
		},
		Portals: PortalsConfig{
			Carfax: Credentials{
				Username: os.Getenv("CARFAX_USER"),
				Password: os.Getenv("CARFAX_PASS"),
			},
			Velocity: Credentials{
				Username: os.Getenv("VELOCITY_USERNAME"),
				Password: os.Getenv("VELOCITY_PASSWORD"),
			},
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("VDS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("VDS_RATE_RPS", 1.0),
			Burst:             envIntOr("VDS_RATE_BURST", 5),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("VDS_CORS_ORIGINS", []string{"*"}),
			MaxAge:       envDurationOr("VDS_CORS_MAX_AGE", 12*time.Hour),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("VDS_CACHE_MAX_ENTRIES", 500),
		},
		Metrics: MetricsConfig{
			Enabled: envBoolOr("VDS_METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Level:  envOr("VDS_LOG_LEVEL", "info"),
			Format: envOr("VDS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
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
