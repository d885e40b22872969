package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := ParseConfig(strings.NewReader("dir: /var/lib/db/txlogs\n"), false)
		require.NoError(t, err)
		require.Equal(t, "/var/lib/db/txlogs", config.Dir)
		require.Equal(t, "txlog", config.Prefix)
		require.False(t, config.Force)
		require.Equal(t, "info", config.Logging.Level)
		require.Equal(t, "text", config.Logging.Type)
		require.NoError(t, config.Validate())
	})

	t.Run("Full", func(t *testing.T) {
		config, err := ParseConfig(strings.NewReader(`
dir: /data
prefix: neostore.transaction.db
force: true
logging:
  level: debug
  type: json
`), false)
		require.NoError(t, err)
		require.Equal(t, "neostore.transaction.db", config.Prefix)
		require.True(t, config.Force)
		require.Equal(t, "debug", config.Logging.Level)
		require.Equal(t, "json", config.Logging.Type)
	})

	t.Run("ExpandEnv", func(t *testing.T) {
		t.Setenv("WALTAIL_TEST_DIR", "/from/env")

		config, err := ParseConfig(strings.NewReader("dir: $WALTAIL_TEST_DIR\n"), true)
		require.NoError(t, err)
		require.Equal(t, "/from/env", config.Dir)

		config, err = ParseConfig(strings.NewReader("dir: $WALTAIL_TEST_DIR\n"), false)
		require.NoError(t, err)
		require.Equal(t, "$WALTAIL_TEST_DIR", config.Dir)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseConfig(strings.NewReader("dir: [\n"), false)
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	require.True(t, errors.Is(config.Validate(), ErrDirRequired))

	config.Dir = "/data"
	config.Logging.Type = "xml"
	require.True(t, errors.Is(config.Validate(), ErrInvalidLogType))

	config.Logging.Type = "json"
	config.Logging.Level = "loud"
	require.True(t, errors.Is(config.Validate(), ErrInvalidLogLevel))

	// Levels are matched regardless of case, as the logger does.
	for _, level := range []string{"WARN", "Warn", "warning", "Debug", "error"} {
		config.Logging.Level = level
		require.NoError(t, config.Validate(), level)
	}
}

func TestReadConfigFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "waltail.yml")
	require.NoError(t, os.WriteFile(filename, []byte("dir: /data\nforce: true\n"), 0644))

	config, err := ReadConfigFile(filename, true)
	require.NoError(t, err)
	require.Equal(t, "/data", config.Dir)
	require.True(t, config.Force)

	_, err = ReadConfigFile(filepath.Join(t.TempDir(), "missing.yml"), true)
	require.Error(t, err)
}
