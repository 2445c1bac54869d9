package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Mode selects one of the built-in configuration presets.
type Mode string

const (
	ModeProduction   Mode = "production"
	ModeDevelopment  Mode = "development"
	ModeExperimental Mode = "experimental"
)

const (
	SamplerHost      = "host"
	SamplerSimulated = "simulated"

	SinkConsole = "console"
	SinkLog     = "log"

	// MinSecretLength is the shortest accepted HMAC-SHA256 signing key.
	MinSecretLength = 32
)

// Config holds the agent configuration. It is built once at startup and
// passed by value; nothing reads the environment after LoadWith returns.
type Config struct {
	Mode Mode

	// Sampling
	Interval       time.Duration
	AlertThreshold float64 // percent, WARNING when a metric is strictly above
	Sampler        string  // host, simulated
	DiskPath       string
	Providers      []string

	// Output
	Debug   bool
	Verbose bool
	Sinks   []string

	// Forecasting, disabled when ForecastWindow is zero
	ForecastWindow     time.Duration
	ForecastMinHistory int

	// Metrics push (Pushgateway base URL), disabled when empty
	MetricsEndpoint string
	PushJob         string

	// HTTP surface, disabled when ListenAddr is empty
	ListenAddr     string
	JWTSecret      string
	SecretKeyFile  string
	TokenExpiry    time.Duration
	AllowedOrigins []string
}

// Lookup resolves an environment key. os.Getenv satisfies it.
type Lookup func(key string) string

// Preset returns the defaults for a mode. Unknown modes resolve to the
// production preset; the second return value reports whether the mode was
// recognised.
func Preset(mode Mode) (Config, bool) {
	cfg := Config{
		Mode:               ModeProduction,
		Interval:           60 * time.Second,
		AlertThreshold:     80,
		Sampler:            SamplerHost,
		DiskPath:           "/",
		Sinks:              []string{SinkConsole},
		ForecastMinHistory: 3,
		PushJob:            "healthwatch",
		TokenExpiry:        90 * 24 * time.Hour,
	}

	switch mode {
	case ModeProduction, "":
		return cfg, true
	case ModeDevelopment:
		cfg.Mode = ModeDevelopment
		cfg.Interval = 5 * time.Second
		cfg.AlertThreshold = 90
		cfg.Debug = true
		cfg.Verbose = true
		return cfg, true
	case ModeExperimental:
		cfg.Mode = ModeExperimental
		cfg.Interval = 30 * time.Second
		cfg.AlertThreshold = 75
		cfg.Providers = []string{"aws", "azure", "gcp"}
		cfg.ForecastWindow = 5 * time.Minute
		cfg.MetricsEndpoint = "http://localhost:9000"
		return cfg, true
	default:
		return cfg, false
	}
}

// LoadWith builds the configuration from lookup, usually os.Getenv. Bad
// values never fail the load: they are skipped and described in the returned warnings.
func LoadWith(lookup Lookup) (Config, []string) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	raw := strings.ToLower(strings.TrimSpace(getEnv(lookup, "MONITOR_ENV", lookup("NODE_ENV"))))
	cfg, ok := Preset(Mode(raw))
	if !ok {
		warn("unknown mode %q, using %s defaults", raw, ModeProduction)
	}
	preset := cfg

	if v := lookup("MONITOR_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = d
		} else {
			warn("ignoring MONITOR_INTERVAL=%q: must be a positive duration", v)
		}
	}
	if v := lookup("MONITOR_ALERT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 100 {
			cfg.AlertThreshold = f
		} else {
			warn("ignoring MONITOR_ALERT_THRESHOLD=%q: must be in (0, 100]", v)
		}
	}
	cfg.Debug = getEnvBool(lookup, "MONITOR_DEBUG", cfg.Debug, warn)
	cfg.Verbose = getEnvBool(lookup, "MONITOR_VERBOSE", cfg.Verbose, warn)

	if v := strings.ToLower(lookup("MONITOR_SAMPLER")); v != "" {
		switch v {
		case SamplerHost, SamplerSimulated:
			cfg.Sampler = v
		default:
			warn("ignoring MONITOR_SAMPLER=%q: want %s or %s", v, SamplerHost, SamplerSimulated)
		}
	}
	cfg.DiskPath = getEnv(lookup, "MONITOR_DISK_PATH", cfg.DiskPath)
	if v := lookup("MONITOR_PROVIDERS"); v != "" {
		cfg.Providers = splitList(v)
	}
	if v := lookup("MONITOR_SINKS"); v != "" {
		var sinks []string
		for _, s := range splitList(strings.ToLower(v)) {
			if s != SinkConsole && s != SinkLog {
				warn("ignoring unknown sink %q", s)
				continue
			}
			sinks = append(sinks, s)
		}
		cfg.Sinks = sinks
	}

	if v := lookup("MONITOR_FORECAST_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ForecastWindow = d
		} else {
			warn("ignoring MONITOR_FORECAST_WINDOW=%q: must be a non-negative duration", v)
		}
	}
	if v := lookup("MONITOR_FORECAST_MIN_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 2 {
			cfg.ForecastMinHistory = n
		} else {
			warn("ignoring MONITOR_FORECAST_MIN_HISTORY=%q: must be an integer >= 2", v)
		}
	}

	cfg.MetricsEndpoint = strings.TrimRight(getEnv(lookup, "MONITOR_METRICS_ENDPOINT", cfg.MetricsEndpoint), "/")
	cfg.PushJob = getEnv(lookup, "MONITOR_PUSH_JOB", cfg.PushJob)
	cfg.ListenAddr = getEnv(lookup, "MONITOR_LISTEN_ADDR", cfg.ListenAddr)
	if v := strings.TrimSpace(lookup("MONITOR_JWT_SECRET")); v != "" {
		if len(v) >= MinSecretLength {
			cfg.JWTSecret = v
		} else {
			warn("ignoring MONITOR_JWT_SECRET: %d bytes, need at least %d", len(v), MinSecretLength)
		}
	}
	cfg.SecretKeyFile = getEnv(lookup, "MONITOR_SECRET_KEY_FILE", cfg.SecretKeyFile)
	if v := lookup("MONITOR_TOKEN_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TokenExpiry = d
		} else {
			warn("ignoring MONITOR_TOKEN_EXPIRY=%q: must be a positive duration", v)
		}
	}
	if v := lookup("MONITOR_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	// Overrides are checked individually above; this only trips on
	// combinations, so the preset is always a safe fallback.
	if err := cfg.Validate(); err != nil {
		warn("invalid configuration (%v), using %s defaults", err, preset.Mode)
		return preset, warnings
	}

	return cfg, warnings
}

// Validate checks the invariants the monitor relies on.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.AlertThreshold <= 0 || c.AlertThreshold > 100 {
		return fmt.Errorf("alert threshold must be in (0, 100]")
	}
	if c.Sampler != SamplerHost && c.Sampler != SamplerSimulated {
		return fmt.Errorf("unknown sampler %q", c.Sampler)
	}
	if c.ForecastWindow < 0 {
		return fmt.Errorf("forecast window must not be negative")
	}
	if c.ForecastWindow > 0 && c.ForecastMinHistory < 2 {
		return fmt.Errorf("forecast minimum history must be at least 2")
	}
	if c.MetricsEndpoint != "" && c.PushJob == "" {
		return fmt.Errorf("push job must be set when a metrics endpoint is configured")
	}
	return nil
}

// ForecastEnabled reports whether the forecaster runs on each tick.
func (c Config) ForecastEnabled() bool {
	return c.ForecastWindow > 0
}

// HasSink reports whether the named output sink is enabled.
func (c Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func getEnv(lookup Lookup, key, defaultValue string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(lookup Lookup, key string, defaultValue bool, warn func(string, ...any)) bool {
	value := lookup(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		warn("ignoring %s=%q: not a boolean", key, value)
		return defaultValue
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
