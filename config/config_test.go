package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, DBPostgres, cfg.DBType)
	assert.Equal(t, "postgres://localhost:5432/devfolio?sslmode=disable", cfg.DatabaseURL)
	assert.Empty(t, cfg.Replicas())
	assert.Equal(t, 30*time.Second, cfg.DBWaitTimeout)
	assert.Equal(t, []string{"*"}, cfg.Origins())
	assert.False(t, cfg.TrustProxy)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "./backups", cfg.BackupDir)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "file:devfolio.db")
	t.Setenv("DATABASE_REPLICA_URLS", "postgres://r1, ,postgres://r2")
	t.Setenv("ACCEPTED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("DB_WAIT_TIMEOUT", "5s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DBSQLite, cfg.DBType)
	assert.Equal(t, []string{"postgres://r1", "postgres://r2"}, cfg.Replicas())
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Origins())
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, 5*time.Second, cfg.DBWaitTimeout)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown db", "DB_TYPE", "mongo"},
		{"bad port", "PORT", "70000"},
		{"port not a number", "PORT", "abc"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"bad duration", "READ_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
