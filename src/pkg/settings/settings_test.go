package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frame-vault/framevault/src/pkg/settings"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, "port: 9000\nmax_images: 5\n")

	config, loadErr := settings.Load(path)
	require.NoError(t, loadErr)

	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, 5, config.MaxImages)

	defaults := settings.Default()
	assert.Equal(t, defaults.Root, config.Root)
	assert.Equal(t, defaults.Width, config.Width)
	assert.Equal(t, defaults.Height, config.Height)
	assert.Equal(t, defaults.MaxUploadBytes, config.MaxUploadBytes)
	assert.Empty(t, config.HistoryDB)
}

func TestLoadEmptyFileIsAllDefaults(t *testing.T) {
	path := writeConfig(t, "")

	config, loadErr := settings.Load(path)
	require.NoError(t, loadErr)
	assert.Equal(t, settings.Default(), config)
}

func TestLoadMissingFile(t *testing.T) {
	_, loadErr := settings.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, loadErr)
}

func TestLoadMalformedYaml(t *testing.T) {
	path := writeConfig(t, "port: [not a number\n")

	_, loadErr := settings.Load(path)
	assert.Error(t, loadErr)
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*settings.Config)
		valid  bool
	}{
		{"defaults", func(*settings.Config) {}, true},
		{"capacity floor", func(c *settings.Config) { c.MaxImages = settings.MinMaxImages }, true},
		{"capacity ceiling", func(c *settings.Config) { c.MaxImages = settings.MaxMaxImages }, true},
		{"capacity zero", func(c *settings.Config) { c.MaxImages = 0 }, false},
		{"capacity above ceiling", func(c *settings.Config) { c.MaxImages = settings.MaxMaxImages + 1 }, false},
		{"port zero", func(c *settings.Config) { c.Port = 0 }, false},
		{"port too high", func(c *settings.Config) { c.Port = 70000 }, false},
		{"empty root", func(c *settings.Config) { c.Root = "" }, false},
		{"zero width", func(c *settings.Config) { c.Width = 0 }, false},
		{"negative upload limit", func(c *settings.Config) { c.MaxUploadBytes = -1 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := settings.Default()
			tc.mutate(&config)
			if tc.valid {
				assert.NoError(t, config.Validate())
			} else {
				assert.Error(t, config.Validate())
			}
		})
	}
}
