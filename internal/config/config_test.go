package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("WITHHOLDING_THRESHOLD", "")
	t.Setenv("WITHHOLDING_DEFAULT_RATE", "")
	t.Setenv("WITHHOLDING_FEES_REAL_RATE", "")
	t.Setenv("WITHHOLDING_FEES_FLAT_RATE", "")
	t.Setenv("WITHHOLDING_RENT_RATE", "")
	t.Setenv("WITHHOLDING_COMMISSION_RATE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	assert.Equal(t, core.RateOverrides{}, cfg.Withholding.Overrides(), "unset settings pin nothing")

	table := cfg.Withholding.RateTable()
	assert.Equal(t, "1000", table.Threshold.String())
	assert.Equal(t, "1.5", table.Default.String())
}

func TestLoad_WithholdingOverrides(t *testing.T) {
	t.Setenv("WITHHOLDING_THRESHOLD", "5000")
	t.Setenv("WITHHOLDING_RENT_RATE", "15")
	t.Setenv("WITHHOLDING_COMMISSION_RATE", "not-a-number")

	cfg := Load()
	table := cfg.Withholding.RateTable()

	require.Equal(t, "5000", table.Threshold.String())
	assert.Equal(t, "15", table.Rent.String())
	assert.Equal(t, "5", table.Commission.String(), "invalid values fall back to the default")

	overrides := cfg.Withholding.Overrides()
	require.NotNil(t, overrides.Threshold)
	require.NotNil(t, overrides.Rent)
	assert.Nil(t, overrides.Commission)
}

func TestGetenvInt64_Invalid(t *testing.T) {
	t.Setenv("REQUEST_BODY_LIMIT", "lots")
	assert.Equal(t, int64(42), getenvInt64("REQUEST_BODY_LIMIT", 42))
}
