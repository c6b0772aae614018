package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.EqualValues(t, 10<<20, cfg.Server.MaxUploadBytes)
	assert.Equal(t, StrategyBundled, cfg.Model.Strategy)
	assert.Equal(t, "models", cfg.Model.BundleDir)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.True(t, cfg.Preprocess.Transcode)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Metrics.StatsdAddr)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "biryani.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
model:
  strategy: remote
  remote:
    descriptor_url: https://models.example.com/model.json
    weights_url: https://models.example.com/weights.bin
    timeout: 45s
log:
  format: json
`), 0o600))

	t.Setenv("BIRYANI_SERVER_PORT", "7070")
	t.Setenv("BIRYANI_PREPROCESS_TRANSCODE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "env wins over file")
	assert.Equal(t, StrategyRemote, cfg.Model.Strategy)
	assert.Equal(t, "https://models.example.com/weights.bin", cfg.Model.Remote.WeightsURL)
	assert.Equal(t, 45*time.Second, cfg.Model.Remote.Timeout)
	assert.Equal(t, "cache/model", cfg.Model.Remote.CacheDir)
	assert.False(t, cfg.Preprocess.Transcode)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Model: ModelConfig{Strategy: StrategyBundled, BundleDir: "models"},
			Store: StoreConfig{Driver: "sqlite"},
			Log:   LogConfig{Format: "console"},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Model.Strategy = "ota"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Model.Strategy = StrategyRemote
	cfg.Model.Remote.CacheDir = "cache"
	assert.Error(t, cfg.Validate(), "remote without URLs")

	cfg.Model.Remote.DescriptorURL = "http://x/model.json"
	cfg.Model.Remote.WeightsURL = "http://x/weights.bin"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Store.Driver = "bolt"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnvSkippedOutsideDev(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("BIRYANI_FROM_DOTENV=yes\n"), 0o600))

	t.Setenv("RUN_TIME_ENV", "prod")
	require.NoError(t, LoadDotEnv())
	_, ok := os.LookupEnv("BIRYANI_FROM_DOTENV")
	assert.False(t, ok)
}

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RUN_TIME_ENV", "dev")
	assert.NoError(t, LoadDotEnv())
}
