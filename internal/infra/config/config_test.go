package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"PORT",
		"EMBEDDING_MODEL",
		"GENERATION_MODEL",
		"GENERATION_MAX_TOKENS",
		"ANSWER_CACHE_TTL",
		"ANSWER_CACHE_LOCAL_SIZE",
		"RATE_LIMIT_PER_MINUTE",
		"RATE_LIMIT_PER_HOUR",
		"RATE_LIMIT_PER_DAY",
		"RETRIEVAL_PARTIAL_RESULTS",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
	assert.Equal(t, 1024, cfg.GenerationMaxTokens)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 256, cfg.CacheLocalSize)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, 100, cfg.RateLimitPerHour)
	assert.Equal(t, 500, cfg.RateLimitPerDay)
	assert.False(t, cfg.RetrievalPartialResults)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATION_MODEL", "gpt-4o")
	t.Setenv("GENERATION_TEMPERATURE", "0.7")
	t.Setenv("ANSWER_CACHE_TTL", "1h")
	t.Setenv("RETRIEVAL_PARTIAL_RESULTS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.GenerationModel)
	assert.Equal(t, 0.7, cfg.GenerationTemperature)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.RetrievalPartialResults)
}

func TestGetSecret_FromFile(t *testing.T) {
	_ = os.Unsetenv("TEST_SECRET")

	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("s3cret-value\n"), 0o600))
	t.Setenv("TEST_SECRET_FILE", path)

	assert.Equal(t, "s3cret-value", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetSecret_EnvWinsOverFile(t *testing.T) {
	t.Setenv("TEST_SECRET", "from-env")
	t.Setenv("TEST_SECRET_FILE", "/nonexistent")

	assert.Equal(t, "from-env", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetEnvWithAlt(t *testing.T) {
	_ = os.Unsetenv("TEST_PRIMARY")
	t.Setenv("TEST_ALT", "alt-value")

	assert.Equal(t, "alt-value", getEnvWithAlt("TEST_PRIMARY", "TEST_ALT", "fallback"))

	t.Setenv("TEST_PRIMARY", "primary-value")
	assert.Equal(t, "primary-value", getEnvWithAlt("TEST_PRIMARY", "TEST_ALT", "fallback"))
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{
			name:     "valid value",
			envValue: "2.5",
			fallback: 0.2,
			expected: 2.5,
		},
		{
			name:     "invalid value uses fallback",
			envValue: "not-a-number",
			fallback: 0.2,
			expected: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_FLOAT", tt.envValue)

			result := getEnvFloat("TEST_FLOAT", tt.fallback)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvDuration_InvalidUsesFallback(t *testing.T) {
	t.Setenv("TEST_DURATION", "soon")

	assert.Equal(t, 10*time.Second, getEnvDuration("TEST_DURATION", 10*time.Second))
}
