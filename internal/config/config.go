// Package config loads the BFF settings from the environment. Every key has
// a default so a bare `go run ./cmd/server` talks to a local upstream with an
// in-memory relationship store.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds the listener and routing settings.
type ServerConfig struct {
	Port              string        // PORT
	ReadTimeout       time.Duration // READ_TIMEOUT
	ReadHeaderTimeout time.Duration // READ_HEADER_TIMEOUT
	WriteTimeout      time.Duration // WRITE_TIMEOUT; must outlast a chat round trip
	IdleTimeout       time.Duration // IDLE_TIMEOUT
	MaxHeaderBytes    int           // MAX_HEADER_BYTES
	GinMode           string        // GIN_MODE: debug|release|test
	APIBasePath       string        // API_BASE_PATH
	SwaggerEnabled    bool          // SWAGGER_ENABLED
}

type LogConfig struct {
	Level  string // LOG_LEVEL
	Pretty bool   // LOG_PRETTY
}

// UpstreamConfig describes the remote character/relationship REST API.
type UpstreamConfig struct {
	BaseURL string        // TASUKI_API_BASE_URL
	Token   string        // TASUKI_API_TOKEN, sent as a bearer token
	Timeout time.Duration // TASUKI_API_TIMEOUT; 0 leaves it to the request context
}

// StoreConfig selects and tunes the keyed relationship store.
type StoreConfig struct {
	Backend       string        // RELATIONSHIP_STORE: memory|redis
	TTL           time.Duration // RELATIONSHIP_TTL
	RedisAddr     string        // REDIS_ADDR
	RedisPassword string        // REDIS_PASSWORD
	RedisDB       int           // REDIS_DB
}

// RosterConfig tunes the derived character list.
type RosterConfig struct {
	SortLocale   string // SORT_LOCALE, BCP 47
	PrefectureID string // PREFECTURE_ID whose municipalities name cities
}

// ChatConfig bounds chat sends.
type ChatConfig struct {
	MaxMessageRunes int           // CHAT_MAX_MESSAGE_RUNES
	IdempotencyTTL  time.Duration // IDEMPOTENCY_TTL
}

// RateConfig is the default token bucket plus the per-route overrides for
// chat sends and NFC unlocks. A zero override rate disables it.
type RateConfig struct {
	RPS         float64 // RATE_RPS
	Burst       int     // RATE_BURST
	ChatRPS     float64 // RATE_CHAT_RPS
	ChatBurst   int     // RATE_CHAT_BURST
	UnlockRPS   float64 // RATE_UNLOCK_RPS
	UnlockBurst int     // RATE_UNLOCK_BURST
}

type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated; empty allows all
}

type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig controls trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// Config is the full process configuration.
type Config struct {
	Server         ServerConfig
	Log            LogConfig
	DBPath         string        // DB_PATH, SQLite file for favorites, unlocks, idempotency
	WSPingInterval time.Duration // WS_PING_INTERVAL
	Upstream       UpstreamConfig
	Store          StoreConfig
	Roster         RosterConfig
	Chat           ChatConfig
	Rate           RateConfig
	CORS           CORSConfig
	Security       SecurityConfig
	OTEL           OTELConfig
}

// MustLoad is Load for main; it panics on invalid configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and validates. All problems
// are reported together.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:              getenv("PORT", "8080"),
			ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
			ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
			WriteTimeout:      getdur("WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
			GinMode:           ginMode(getenv("GIN_MODE", "release")),
			APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
			SwaggerEnabled:    getbool("SWAGGER_ENABLED", false),
		},
		Log: LogConfig{
			Level:  logLevel(getenv("LOG_LEVEL", "info")),
			Pretty: getbool("LOG_PRETTY", false),
		},
		DBPath:         getenv("DB_PATH", "tasuki.db"),
		WSPingInterval: getdur("WS_PING_INTERVAL", 30*time.Second),
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(getenv("TASUKI_API_BASE_URL", "http://localhost:8000"), "/"),
			Token:   getenv("TASUKI_API_TOKEN", ""),
			Timeout: getdur("TASUKI_API_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getenv("RELATIONSHIP_STORE", "memory")),
			TTL:           getdur("RELATIONSHIP_TTL", 10*time.Minute),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
		},
		Roster: RosterConfig{
			SortLocale:   getenv("SORT_LOCALE", "ja"),
			PrefectureID: getenv("PREFECTURE_ID", "7"),
		},
		Chat: ChatConfig{
			MaxMessageRunes: getint("CHAT_MAX_MESSAGE_RUNES", 1000),
			IdempotencyTTL:  getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Rate: RateConfig{
			RPS:         getfloat("RATE_RPS", 5),
			Burst:       getint("RATE_BURST", 10),
			ChatRPS:     getfloat("RATE_CHAT_RPS", 0.5),
			ChatBurst:   getint("RATE_CHAT_BURST", 3),
			UnlockRPS:   getfloat("RATE_UNLOCK_RPS", 0.2),
			UnlockBurst: getint("RATE_UNLOCK_BURST", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tasuki-companion"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints and returns every violation joined.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Server
	check(strings.TrimSpace(s.Port) != "", "PORT must not be empty")
	check(s.ReadTimeout > 0 && s.ReadHeaderTimeout > 0 && s.WriteTimeout > 0 && s.IdleTimeout > 0,
		"server timeouts must be positive")
	check(s.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(c.Log.Level != "", "LOG_LEVEL must be one of debug, info, warn, error, fatal, panic")
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	check(c.WSPingInterval > 0, "WS_PING_INTERVAL must be > 0")

	u := c.Upstream
	check(strings.HasPrefix(u.BaseURL, "http://") || strings.HasPrefix(u.BaseURL, "https://"),
		"TASUKI_API_BASE_URL must be an http(s) URL, got %q", u.BaseURL)
	check(u.Timeout >= 0, "TASUKI_API_TIMEOUT must be >= 0")
	check(u.Timeout == 0 || u.Timeout < s.WriteTimeout,
		"TASUKI_API_TIMEOUT (%s) must be shorter than WRITE_TIMEOUT (%s)", u.Timeout, s.WriteTimeout)

	st := c.Store
	check(st.Backend == "memory" || st.Backend == "redis", "RELATIONSHIP_STORE must be memory or redis, got %q", st.Backend)
	check(st.TTL > 0, "RELATIONSHIP_TTL must be > 0")
	check(st.Backend != "redis" || strings.TrimSpace(st.RedisAddr) != "",
		"REDIS_ADDR is required when RELATIONSHIP_STORE=redis")
	check(st.RedisDB >= 0, "REDIS_DB must be >= 0")

	check(strings.TrimSpace(c.Roster.PrefectureID) != "", "PREFECTURE_ID must not be empty")
	check(c.Chat.MaxMessageRunes > 0, "CHAT_MAX_MESSAGE_RUNES must be > 0")
	check(c.Chat.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")

	r := c.Rate
	check(r.RPS >= 0 && r.ChatRPS >= 0 && r.UnlockRPS >= 0, "rate limits must be >= 0")
	check(r.Burst >= 1, "RATE_BURST must be >= 1")
	check(r.ChatRPS == 0 || r.ChatBurst >= 1, "RATE_CHAT_BURST must be >= 1")
	check(r.UnlockRPS == 0 || r.UnlockBurst >= 1, "RATE_UNLOCK_BURST must be >= 1")

	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getenv(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getint(k string, def int) int {
	if i, err := strconv.Atoi(getenv(k, "")); err == nil {
		return i
	}
	return def
}

func getbool(k string, def bool) bool {
	switch strings.ToLower(getenv(k, "")) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getenv(k, "")); err == nil {
		return d
	}
	return def
}

// logLevel normalizes LOG_LEVEL; unknown values come back empty.
func logLevel(v string) string {
	switch v = strings.ToLower(v); v {
	case "warning":
		return "warn"
	case "debug", "info", "warn", "error", "fatal", "panic":
		return v
	}
	return ""
}

// ginMode falls back to release for anything gin would not accept.
func ginMode(v string) string {
	switch v = strings.ToLower(v); v {
	case "debug", "release", "test":
		return v
	}
	return "release"
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns "/" or a path with a leading and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p
}
