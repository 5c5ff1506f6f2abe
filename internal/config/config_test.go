package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.InDelta(t, 8.0, cfg.ScoreMismatchThreshold, 0.0001)
	assert.Equal(t, 30*time.Minute, cfg.StuckAfter)
	assert.Equal(t, 300*time.Second, cfg.PresignPutExpiry)
	assert.Equal(t, time.Hour, cfg.PresignGetExpiry)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.AdminEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCORE_MISMATCH_THRESHOLD", "7")
	t.Setenv("ADMIN_SECRET", "hunter2")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.InDelta(t, 7.0, cfg.ScoreMismatchThreshold, 0.0001)
	assert.True(t, cfg.IsProd())
	assert.True(t, cfg.AdminEnabled())
}
