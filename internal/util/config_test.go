package util

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTokenConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_ACCESS_EXPIRES_IN", "10m")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "7d")

	cfg, err := LoadTokenConfig()
	require.NoError(t, err)
	assert.Equal(t, []byte("access"), cfg.AccessSecret)
	assert.Equal(t, []byte("refresh"), cfg.RefreshSecret)
	assert.Equal(t, "seniorble", cfg.Issuer)
	assert.Equal(t, 10*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
}

func TestLoadTokenConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_ACCESS_EXPIRES_IN", "")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "not-a-duration")

	cfg, err := LoadTokenConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
}

func TestLoadTokenConfig_Errors(t *testing.T) {
	t.Run("missing access secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")
		_, err := LoadTokenConfig()
		require.ErrorIs(t, err, ErrMissingSecret)
	})
	t.Run("missing refresh secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "")
		_, err := LoadTokenConfig()
		require.ErrorIs(t, err, ErrMissingSecret)
	})
	t.Run("same secrets", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "same")
		t.Setenv("JWT_REFRESH_SECRET", "same")
		_, err := LoadTokenConfig()
		require.ErrorIs(t, err, ErrSameSecrets)
	})
}

func TestLoadPasswordConfig(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")
	cfg, err := LoadPasswordConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Cost)

	t.Setenv("BCRYPT_COST", "12")
	cfg, err = LoadPasswordConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Cost)

	for _, v := range []string{"9", "15", "abc"} {
		t.Setenv("BCRYPT_COST", v)
		_, err = LoadPasswordConfig()
		require.ErrorIs(t, err, ErrBcryptCost, v)
	}
}

func TestNewCookieConfig(t *testing.T) {
	t.Setenv("REFRESH_COOKIE_NAME", "")
	t.Setenv("REFRESH_COOKIE_PATH", "")
	t.Setenv("REFRESH_COOKIE_SAMESITE", "strict")
	t.Setenv("REFRESH_COOKIE_SECURE", "false")

	cfg := NewCookieConfig(time.Hour)
	assert.Equal(t, "refreshToken", cfg.Name)
	assert.Equal(t, "/auth/refresh", cfg.Path)
	assert.Equal(t, http.SameSiteStrictMode, cfg.SameSite)
	assert.False(t, cfg.Secure)
	assert.Equal(t, time.Hour, cfg.MaxAge)
}

func TestNewStoreConfig(t *testing.T) {
	t.Setenv("REFRESH_STORE", "")
	t.Setenv("REFRESH_RETENTION", "")
	cfg, err := NewStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendPostgres, cfg.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention)

	t.Setenv("REFRESH_STORE", "Redis")
	t.Setenv("REFRESH_RETENTION", "2d")
	cfg, err = NewStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendRedis, cfg.Backend)
	assert.Equal(t, 48*time.Hour, cfg.Retention)

	t.Setenv("REFRESH_STORE", "mongo")
	_, err = NewStoreConfig()
	require.Error(t, err)
}

func TestNewServerConfig(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("READ_TIMEOUT", "3s")

	cfg := NewServerConfig()
	assert.Equal(t, "localhost:8000", cfg.ServerAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("30d")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, d)

	d, err = ParseDuration("90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseDuration("xd")
	require.Error(t, err)
}

func TestNewRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	assert.Nil(t, NewRedisConfig())

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	cfg := NewRedisConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 2, cfg.DB)
}

func TestNewDBConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := NewDBConfig()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	cfg, err := NewDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/db", cfg.DSN)
}
