package migrations

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_EmbedsInitMigration(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	up, identifier, err := src.ReadUp(version)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init", identifier)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS appointments")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS staff_activity_logs")

	down, _, err := src.ReadDown(version)
	require.NoError(t, err)
	down.Close()
}

func TestUp_InvalidURL(t *testing.T) {
	err := Up("://not-a-url", nopLogger{})
	assert.ErrorIs(t, err, ErrApply)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
