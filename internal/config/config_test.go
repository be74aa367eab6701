package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/tutorpay")
	t.Setenv("JWT_SECRET", "secret")
}

func TestParse_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "tutorpay", cfg.JWTIssuer)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, uint64(5), cfg.TxMaxRetries)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Empty(t, cfg.TelegramToken)
	assert.False(t, cfg.IsProduction())
}

func TestParse_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TX_MAX_RETRIES", "2")
	t.Setenv("RECONCILE_INTERVAL", "15m")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, uint64(2), cfg.TxMaxRetries)
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"DB_DSN": "", "JWT_SECRET": "s"}},
		{"missing secret", map[string]string{"DB_DSN": "x", "JWT_SECRET": ""}},
		{"bad interval", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "RECONCILE_INTERVAL": "soon"}},
		{"zero interval", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "RECONCILE_INTERVAL": "0s"}},
		{"bad retries", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "TX_MAX_RETRIES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
