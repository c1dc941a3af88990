package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 100, cfg.StartingChips)
	assert.Equal(t, 5, cfg.Ante)
	assert.Equal(t, 5, cfg.ContinueCost)
	assert.Equal(t, 5*time.Second, cfg.RoundEndDelay)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SABACC_LISTEN_ADDR", ":9000")
	t.Setenv("SABACC_ANTE", "10")
	t.Setenv("SABACC_ROUND_END_DELAY", "250ms")
	t.Setenv("SABACC_REDIS_URL", "redis://localhost:6379/0")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.Ante)
	assert.Equal(t, 250*time.Millisecond, cfg.RoundEndDelay)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SABACC_ANTE", "lots")
	t.Setenv("SABACC_ROUND_END_DELAY", "soon")

	cfg := Load()
	assert.Equal(t, 5, cfg.Ante)
	assert.Equal(t, 5*time.Second, cfg.RoundEndDelay)
}
