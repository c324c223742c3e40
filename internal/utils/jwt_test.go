package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "alice", "USER", 15)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.True(t, tok.Exp.After(time.Now()))

	username, role, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "USER", role)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret", "alice", "USER", 15)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("other-secret", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", "alice", "USER", -1)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("secret", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenGarbage(t *testing.T) {
	_, _, err := ParseAccessToken("secret", "not-a-token")
	assert.Error(t, err)
}
