package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrationsFromClean(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_google_credentials.sql"}, pending)
}

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{"001_init.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_google_credentials.sql"}, pending)
}
