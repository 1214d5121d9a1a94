package configutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Input   string   `json:"input"`
	Output  string   `json:"output"`
	Delay   Duration `json:"delay"`
	Retries int      `json:"retries"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "playerdata.json5"), `{
		// comments are allowed
		input: "players.csv",
		output: "out.json",
		delay: "2s",
	}`)
	writeFile(t, filepath.Join(dir, "playerdata.local.json5"), `{output: "local.json"}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "playerdata.json5"))
	require.NoError(t, err)
	require.Equal(t, "players.csv", config.Input)
	require.Equal(t, "local.json", config.Output)
	require.Equal(t, 2*time.Second, config.Delay.Std())
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nothing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFillsDefaults(t *testing.T) {
	defaults := testConfig{
		Input:   "player_data.csv",
		Output:  "player_images.json",
		Delay:   Duration(1500 * time.Millisecond),
		Retries: 1,
	}

	dir := t.TempDir()
	config, err := Load(filepath.Join(dir, "playerdata.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	writeFile(t, filepath.Join(dir, "playerdata.json5"), `{input: "other.csv", delay: 0.25}`)
	config, err = Load(filepath.Join(dir, "playerdata.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "other.csv", config.Input)
	require.Equal(t, "player_images.json", config.Output)
	require.Equal(t, 250*time.Millisecond, config.Delay.Std())
	require.Equal(t, 1, config.Retries)
}

func TestDurationUnmarshal(t *testing.T) {
	table := []struct {
		input    string
		expected time.Duration
	}{
		{input: `"1.5s"`, expected: 1500 * time.Millisecond},
		{input: `'10s'`, expected: 10 * time.Second},
		{input: `3`, expected: 3 * time.Second},
		{input: `0.5`, expected: 500 * time.Millisecond},
	}

	for _, row := range table {
		var d Duration
		require.NoError(t, d.UnmarshalJSON([]byte(row.input)))
		require.Equal(t, row.expected, d.Std())
	}

	var d Duration
	require.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	defaults := testConfig{
		Input:   "player_data.csv",
		Delay:   Duration(1500 * time.Millisecond),
		Retries: 3,
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "playerdata.json5"), `{delay: "0s", retries: 5}`)
	writeFile(t, filepath.Join(dir, "playerdata.local.json5"), `{retries: 0}`)

	config, err := Load(filepath.Join(dir, "playerdata.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "player_data.csv", config.Input)
	require.Equal(t, time.Duration(0), config.Delay.Std())
	require.Equal(t, 0, config.Retries)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "playerdata.json5"), `{delay: "soon"}`)

	_, err := Load(filepath.Join(dir, "playerdata.json5"), testConfig{})
	require.ErrorContains(t, err, "parse")
}
