package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(envMap(nil))
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"CALC_ADDR":           ":9000",
		"CALC_DB_PATH":        "/tmp/calc.db",
		"CALC_TOKEN_TTL":      "2h",
		"CALC_SOLVER_URL":     "http://cas:5001/",
		"CALC_REDIS_ADDR":     "redis:6379",
		"CALC_LOG_LEVEL":      "debug",
		"CALC_LLM_ENABLED":    "true",
		"CALC_LLM_ENDPOINT":   "http://ollama:11434/",
		"CALC_LLM_TIMEOUT_MS": "1500",
	}))

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/tmp/calc.db", cfg.DBPath)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "http://cas:5001", cfg.SolverURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.Endpoint)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLM.Timeout)
}

func TestLoad_IgnoresMalformed(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"CALC_TOKEN_TTL":      "soon",
		"CALC_LLM_ENABLED":    "maybe",
		"CALC_LLM_TIMEOUT_MS": "-5",
		"CALC_LOG_LEVEL":      "loud",
	}))
	def := Default()
	assert.Equal(t, def.TokenTTL, cfg.TokenTTL)
	assert.Equal(t, def.LLM.Enabled, cfg.LLM.Enabled)
	assert.Equal(t, def.LLM.Timeout, cfg.LLM.Timeout)
	assert.Equal(t, def.LogLevel, cfg.LogLevel)
}
