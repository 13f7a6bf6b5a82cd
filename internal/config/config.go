package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ModeProduction is the only server mode in which the origin allowlist is enforced.
const ModeProduction = "production"

// CommonHeaders are attached to every response produced by a routed handler.
var CommonHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST",
	"Access-Control-Allow-Headers": "Content-Type",
}

// Config holds the core runtime configuration for the tracker.
// It is built once at startup and never mutated afterwards; components
// receive it by pointer from main. See .env.example.
type Config struct {
	LoggerMode string
	ServerMode string
	ServerPort int

	// TrackerURL is the public base URL of this service. It is embedded
	// into every synthesized client script as the beacon target.
	TrackerURL string

	ServeHTTPS  bool
	TLSCertFile string
	TLSKeyFile  string

	// AllowedOrigins is the global Origin allowlist, only consulted in
	// production mode.
	AllowedOrigins []string

	DatabaseURL string

	// RetentionDays controls how long ingested events are kept.
	RetentionDays int

	// RedisURL enables the project configuration cache when set.
	RedisURL       string
	ConfigCacheTTL time.Duration

	// NATSURL enables mirroring of accepted events to NATS when set.
	NATSURL           string
	NATSSubjectPrefix string

	MinifyScripts bool

	// MetricsAddr is the listen address of the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string
}

// Load reads configuration from environment variables and applies
// defaults.
func Load() *Config {
	cfg := &Config{
		LoggerMode:        getenv("LOGGER_MODE", "console"),
		ServerMode:        getenv("SERVER_MODE", ModeProduction),
		ServerPort:        8000,
		TrackerURL:        strings.TrimRight(getenv("TRACKER_URL", "https://localhost:8000"), "/"),
		ServeHTTPS:        getBool("SERVE_HTTPS", false),
		TLSCertFile:       getenv("TLS_CERT_FILE", "./keys/cert.pem"),
		TLSKeyFile:        getenv("TLS_KEY_FILE", "./keys/key.pem"),
		AllowedOrigins:    splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		DatabaseURL:       os.Getenv("APP_DATABASE_URL"),
		RetentionDays:     90,
		RedisURL:          os.Getenv("REDIS_URL"),
		ConfigCacheTTL:    getDuration("CONFIG_CACHE_TTL", time.Minute),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getenv("NATS_SUBJECT_PREFIX", "webpulse.events"),
		MinifyScripts:     getBool("SCRIPT_MINIFY", true),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.ServerPort = port
		}
	}

	if v := os.Getenv("APP_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}

	return cfg
}

// IsProduction reports whether the origin allowlist must be enforced.
func (c *Config) IsProduction() bool {
	return c.ServerMode == ModeProduction
}

// ListenAddr is the address the public server binds to.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
