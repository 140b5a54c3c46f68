package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Workers int               `json:"workers"`
	Nested  testNested        `json:"nested"`
	Labels  map[string]string `json:"labels"`
}

type testNested struct {
	Endpoint string `json:"endpoint"`
	Delay    string `json:"delay"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		name: "base",
		workers: 2,
		nested: { endpoint: "https://example.org", delay: "2s" },
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		workers: 8,
		nested: { delay: "5s" },
	}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:    "base",
		Workers: 8,
		Nested: testNested{
			Endpoint: "https://example.org",
			Delay:    "5s",
		},
	}, config)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{
		Name:    "default",
		Workers: 4,
		Nested:  testNested{Endpoint: "https://default.example", Delay: "1s"},
	}

	dir := t.TempDir()
	missing, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, missing)

	writeFile(t, filepath.Join(dir, "config.json5"), `{ nested: { delay: "3s" } }`)
	config, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "default", config.Name)
	require.Equal(t, 4, config.Workers)
	require.Equal(t, "https://default.example", config.Nested.Endpoint)
	require.Equal(t, "3s", config.Nested.Delay)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ name: `)
	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
}
