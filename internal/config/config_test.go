package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.String("addr", ":8080", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "flashdeck.db", cfg.Storage.Path)
	assert.Equal(t, "flashcards.v1", cfg.Storage.Key)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(5<<20), cfg.Import.MaxBytes)
	assert.Equal(t, "repos", cfg.Import.ReposDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Seed)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashdeck.yaml")
	content := `
storage:
  driver: file
  path: from-file.json
server:
  addr: ":9000"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FLASHDECK_SERVER_ADDR", ":9100")
	t.Setenv("FLASHDECK_IMPORT_MAX_BYTES", "1024")
	t.Setenv("FLASHDECK_SEED", "false")

	cfg, err := Load(newFlags(t, "--config", path, "--db", "from-flag.json"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver, "file overrides default")
	assert.Equal(t, "from-flag.json", cfg.Storage.Path, "flag overrides file")
	assert.Equal(t, ":9100", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, int64(1024), cfg.Import.MaxBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Seed)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	cfg.Storage.Driver = "redis"
	cfg.Log.Format = "xml"
	cfg.Import.MaxBytes = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `storage.driver must be one of sqlite, file, memory (got "redis")`)
	assert.Contains(t, err.Error(), "log.format must be one of")
	assert.Contains(t, err.Error(), "import.max_bytes must be at least 1")
	assert.NotContains(t, err.Error(), "server.addr")
}

func TestValidate_MemoryNeedsNoPath(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	cfg.Storage.Driver = "memory"
	cfg.Storage.Path = ""
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "file"
	assert.ErrorContains(t, cfg.Validate(), "storage.path is required unless storage.driver is memory")
}
