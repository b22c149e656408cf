package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJWT_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := GenerateSessionJWT(secret, "sid-123", time.Hour)
	require.NoError(t, err)

	sid, err := ParseSessionJWT(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "sid-123", sid)
}

func TestSessionJWT_Rejects(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := GenerateSessionJWT(secret, "sid-123", time.Hour)
	require.NoError(t, err)
	_, err = ParseSessionJWT([]byte("other"), tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	expired, err := GenerateSessionJWT(secret, "sid-123", -time.Minute)
	require.NoError(t, err)
	_, err = ParseSessionJWT(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = ParseSessionJWT(secret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidSession)

	blank, err := GenerateSessionJWT(secret, "", time.Hour)
	require.NoError(t, err)
	_, err = ParseSessionJWT(secret, blank)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
