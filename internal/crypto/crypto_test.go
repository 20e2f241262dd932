package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	m, err := NewJWTManager([]byte("secret"), time.Hour)
	require.NoError(t, err)

	token, err := m.CreateToken("u1")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
}

func TestJWT_RejectsOtherSecret(t *testing.T) {
	a, _ := NewJWTManager([]byte("a"), time.Hour)
	b, _ := NewJWTManager([]byte("b"), time.Hour)

	token, err := a.CreateToken("u1")
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	require.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	m, _ := NewJWTManager([]byte("secret"), time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.CreateToken("u1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	require.Error(t, err)
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager(nil, time.Hour)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "hunter22")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRandBytes(t *testing.T) {
	out, err := RandBytes(make([]byte, 16))
	require.NoError(t, err)
	require.Len(t, out, 16)

	_, err = RandBytes(nil)
	require.Error(t, err)
}
