// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as the feed endpoint, polling cadence, dispatcher limits, database
// path, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the ops API.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "outage-notifier")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server (ops HTTP surface)
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// State store
	DBPath string // SQLite path

	// Feed
	FeedURL     string        // outage dataset JSON endpoint
	FeedTimeout time.Duration // per-fetch HTTP timeout

	// Reconciliation cycle
	PollInterval time.Duration // cadence of the scheduler
	CycleTimeout time.Duration // hard budget for one full cycle

	// Dispatcher
	BotToken          string        // messaging gateway credential
	DispatchWorkers   int           // concurrent send workers
	GatewayRPS        float64       // gateway token-bucket refill rate
	GatewayBurst      int           // gateway token-bucket size
	SendMaxRetries    int           // transient-failure retries per (user, outage)
	SendRetryInterval time.Duration // initial backoff between retries

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// State store
		DBPath: getenv("DB_PATH", "kouran.db"),

		// Feed
		FeedURL: getenv("FEED_URL",
			"https://raw.githubusercontent.com/MrSunshyne/mauritius-dataset-electricity/main/data/power-outages.latest.json"),
		FeedTimeout: getdur("FEED_TIMEOUT", 30*time.Second),

		// Cycle
		PollInterval: getdur("POLL_INTERVAL", 15*time.Minute),
		CycleTimeout: getdur("CYCLE_TIMEOUT", 5*time.Minute),

		// Dispatcher
		BotToken:          getenv("BOT_TOKEN", ""),
		DispatchWorkers:   getint("DISPATCH_WORKERS", 4),
		GatewayRPS:        getfloat("GATEWAY_RPS", 20.0),
		GatewayBurst:      getint("GATEWAY_BURST", 5),
		SendMaxRetries:    getint("SEND_MAX_RETRIES", 3),
		SendRetryInterval: getdur("SEND_RETRY_INTERVAL", time.Second),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "outage-notifier"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.FeedURL) == "" {
		return cfg, errors.New("FEED_URL must not be empty")
	}
	if cfg.FeedTimeout <= 0 {
		return cfg, errors.New("FEED_TIMEOUT must be > 0")
	}
	if cfg.PollInterval < time.Minute {
		return cfg, errors.New("POLL_INTERVAL must be >= 1m")
	}
	if cfg.CycleTimeout <= 0 || cfg.CycleTimeout > cfg.PollInterval {
		return cfg, errors.New("CYCLE_TIMEOUT must be > 0 and <= POLL_INTERVAL")
	}
	if cfg.DispatchWorkers < 1 {
		return cfg, errors.New("DISPATCH_WORKERS must be >= 1")
	}
	if cfg.GatewayRPS <= 0 {
		return cfg, errors.New("GATEWAY_RPS must be > 0")
	}
	if cfg.GatewayBurst < 1 {
		return cfg, errors.New("GATEWAY_BURST must be >= 1")
	}
	if cfg.SendMaxRetries < 0 {
		return cfg, errors.New("SEND_MAX_RETRIES must be >= 0")
	}
	if cfg.SendRetryInterval <= 0 {
		return cfg, errors.New("SEND_RETRY_INTERVAL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
