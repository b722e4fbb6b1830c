package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: TRANSMILE_[SECTION]_[KEY] (e.g., TRANSMILE_HISTORY_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Source, "TRANSMILE_SOURCE")
	setEnvString(&cfg.OutDir, "TRANSMILE_OUT_DIR")
	setEnvList(&cfg.Ignore, "TRANSMILE_IGNORE")
	if val, ok := os.LookupEnv("TRANSMILE_COPY"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", "TRANSMILE_COPY", "value", val)
			cfg.SetCopy(b)
		}
	}
	setEnvBool(&cfg.KeepGoing, "TRANSMILE_KEEP_GOING")

	// Search
	setEnvString(&cfg.Search.ModuleVar, "TRANSMILE_SEARCH_MODULE_VAR")
	setEnvString(&cfg.Search.GenericVar, "TRANSMILE_SEARCH_GENERIC_VAR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "TRANSMILE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "TRANSMILE_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "TRANSMILE_WATCH_BURST")

	// History
	setEnvBool(&cfg.History.Enabled, "TRANSMILE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "TRANSMILE_HISTORY_PATH")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "TRANSMILE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "TRANSMILE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = SplitCommaList(val)
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

// SplitCommaList splits a comma separated list, trimming items and dropping
// empty ones.
func SplitCommaList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
