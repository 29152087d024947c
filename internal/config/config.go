package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server settings. Every field can be overridden from the
// environment; unset or malformed values keep the defaults.
type Config struct {
	Addr            string
	DBPath          string
	JWTSecret       string
	TokenTTL        time.Duration
	SolverURL       string
	SolverTimeout   time.Duration
	RedisAddr       string
	CacheTTL        time.Duration
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	LLM             LLMConfig
}

// LLMConfig configures the explanation model (an Ollama-compatible endpoint).
type LLMConfig struct {
	Enabled  bool
	Endpoint string
	Model    string
	Timeout  time.Duration
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "calculator.db",
		JWTSecret:       "change-me-in-production",
		TokenTTL:        24 * time.Hour,
		SolverURL:       "http://localhost:5001",
		SolverTimeout:   30 * time.Second,
		CacheTTL:        7 * 24 * time.Hour,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: 15 * time.Second,
		LLM: LLMConfig{
			Enabled:  false,
			Endpoint: "http://localhost:11434",
			Model:    "llama3.2",
			Timeout:  60 * time.Second,
		},
	}
}

// Load reads the configuration through getenv (os.Getenv when nil).
func Load(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	setString(getenv, "CALC_ADDR", &cfg.Addr)
	setString(getenv, "CALC_DB_PATH", &cfg.DBPath)
	setString(getenv, "CALC_JWT_SECRET", &cfg.JWTSecret)
	setDuration(getenv, "CALC_TOKEN_TTL", &cfg.TokenTTL)
	setString(getenv, "CALC_SOLVER_URL", &cfg.SolverURL)
	setDuration(getenv, "CALC_SOLVER_TIMEOUT", &cfg.SolverTimeout)
	setString(getenv, "CALC_REDIS_ADDR", &cfg.RedisAddr)
	setDuration(getenv, "CALC_CACHE_TTL", &cfg.CacheTTL)
	setDuration(getenv, "CALC_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if v := getenv("CALC_LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = lvl
		}
	}

	if v := getenv("CALC_LLM_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LLM.Enabled = b
		}
	}
	setString(getenv, "CALC_LLM_ENDPOINT", &cfg.LLM.Endpoint)
	setString(getenv, "CALC_LLM_MODEL", &cfg.LLM.Model)
	if v := getenv("CALC_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.Timeout = time.Duration(n) * time.Millisecond
		}
	}

	cfg.SolverURL = strings.TrimRight(cfg.SolverURL, "/")
	cfg.LLM.Endpoint = strings.TrimRight(cfg.LLM.Endpoint, "/")
	return cfg
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) {
	v := getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}
