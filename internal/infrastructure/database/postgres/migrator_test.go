package postgres

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDBURL returns the integration database URL, skipping the test when it
// is not configured.
func testDBURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("SCENIQ_TEST_DB_URL")
	if url == "" {
		t.Skip("SCENIQ_TEST_DB_URL not set, skipping migration integration test")
	}
	return url
}

const testMigrationsPath = "file://../../../../migrations"

func TestRollbackMigration_RejectsNonPositiveSteps(t *testing.T) {
	err := RollbackMigration("postgres://localhost/ignored", testMigrationsPath, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be >= 1")

	err = RollbackMigration("postgres://localhost/ignored", testMigrationsPath, -2)
	assert.Error(t, err)
}

func TestRunMigrations_BadSourceURL(t *testing.T) {
	err := RunMigrations("postgres://localhost/ignored", "file://does-not-exist")
	assert.Error(t, err)
}

func TestRunMigrations_Integration(t *testing.T) {
	url := testDBURL(t)

	require.NoError(t, RunMigrations(url, testMigrationsPath))

	// A second run is a no-op.
	require.NoError(t, RunMigrations(url, testMigrationsPath))

	version, dirty, err := MigrationStatus(url, testMigrationsPath)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))
}

func TestRollbackMigration_Integration(t *testing.T) {
	url := testDBURL(t)

	require.NoError(t, RunMigrations(url, testMigrationsPath))
	require.NoError(t, RollbackMigration(url, testMigrationsPath, 1))
	require.NoError(t, RunMigrations(url, testMigrationsPath))
}
