package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoogleCredentialsExpired(t *testing.T) {
	now := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no recorded expiry", nil, false},
		{"expiry in the future", &future, false},
		{"expiry in the past", &past, true},
		{"expiry exactly now", &now, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &GoogleCredentials{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, c.Expired(now))
		})
	}
}
