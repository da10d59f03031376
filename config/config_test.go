package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "campusdesk", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.GoogleTokenTTL)
	assert.Equal(t, 20, cfg.IssueDailyLimit)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.Production())
}

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_BACKEND", "memory")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvMongoNeedsURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGODB_URI", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "MONGODB_URI")

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_LOGIN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.edu,https://b.edu")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, 2*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, cfg.CORSOrigins)

	t.Setenv("STORE_BACKEND", "postgres")
	_, err = FromEnv()
	assert.Error(t, err)
}
