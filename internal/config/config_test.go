package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "coaching_app", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 24, cfg.Coaching.CooldownHours)
	assert.Equal(t, 24*time.Hour, cfg.Coaching.CooldownDuration())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("COACHING_COOLDOWN_HOURS", "48")
	t.Setenv("SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 48*time.Hour, cfg.Coaching.CooldownDuration())
}

func TestLoadConfigRejectsNonPositiveCooldown(t *testing.T) {
	t.Setenv("COACHING_COOLDOWN_HOURS", "-1")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Coaching.CooldownHours)
}
