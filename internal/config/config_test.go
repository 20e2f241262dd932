package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSecretOutsideDebug(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEBUG", "")

	_, err := Load(Overrides{})
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("MAX_IMAGE_BYTES", "")
	t.Setenv("MAX_BODY_BYTES", "")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.Addr)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	require.Equal(t, 64, cfg.OutboxSize)
	require.Equal(t, int64(4<<20), cfg.MaxImageBytes)
	require.Equal(t, int64(4<<20)*4/3+64<<10, cfg.MaxBodyBytes)
}

func TestLoad_BodyLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("MAX_IMAGE_BYTES", "3000")
	t.Setenv("MAX_BODY_BYTES", "")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, int64(4000+64<<10), cfg.MaxBodyBytes)

	t.Setenv("MAX_BODY_BYTES", "1024")
	cfg, err = Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, int64(1024), cfg.MaxBodyBytes)

	t.Setenv("MAX_BODY_BYTES", "-1")
	_, err = Load(Overrides{})
	require.Error(t, err)
}

func TestLoad_OverridesWin(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "7000")
	t.Setenv("FRONTEND_URL", "http://a.test, http://b.test")

	addr := "127.0.0.1:9999"
	debug := true
	cfg, err := Load(Overrides{Addr: &addr, Debug: &debug})
	require.NoError(t, err)
	require.Equal(t, addr, cfg.Addr)
	require.True(t, cfg.Debug)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TOKEN_TTL", "soon")

	_, err := Load(Overrides{})
	require.Error(t, err)
}
