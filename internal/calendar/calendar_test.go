package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentialsFromToken(t *testing.T) {
	expiry := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	creds := credentialsFromToken(42, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	})

	assert.Equal(t, int64(42), creds.ChatID)
	assert.Equal(t, "access", creds.AccessToken)
	assert.Equal(t, "refresh", creds.RefreshToken)
	assert.Equal(t, "primary", creds.CalendarID)
	require.NotNil(t, creds.ExpiresAt)
	assert.Equal(t, expiry, *creds.ExpiresAt)
}

func TestCredentialsFromTokenWithoutExpiry(t *testing.T) {
	creds := credentialsFromToken(42, &oauth2.Token{AccessToken: "access"})

	assert.Equal(t, "primary", creds.CalendarID)
	assert.Nil(t, creds.ExpiresAt)
}
