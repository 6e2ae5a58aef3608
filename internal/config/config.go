// Package config loads flashdeck settings using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides, e.g. FLASHDECK_STORAGE_DRIVER.
const EnvPrefix = "FLASHDECK_"

// Config is the root configuration structure.
type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Server  ServerConfig  `koanf:"server"`
	Import  ImportConfig  `koanf:"import"`
	Log     LogConfig     `koanf:"log"`
	Seed    bool          `koanf:"seed"`
}

// StorageConfig selects the persistence adapter.
type StorageConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=sqlite file memory"`
	Path   string `koanf:"path"   validate:"required_unless=Driver memory"`
	Key    string `koanf:"key"    validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// ImportConfig bounds and locates imports.
type ImportConfig struct {
	MaxBytes int64  `koanf:"max_bytes" validate:"min=1"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=text json"`
}

func defaults() map[string]any {
	return map[string]any{
		"storage.driver":   "sqlite",
		"storage.path":     "flashdeck.db",
		"storage.key":      "flashcards.v1",
		"server.addr":      ":8080",
		"import.max_bytes": int64(5 << 20),
		"import.repos_dir": "repos",
		"log.level":        "info",
		"log.format":       "text",
		"seed":             true,
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"driver":     "storage.driver",
	"db":         "storage.path",
	"key":        "storage.key",
	"addr":       "server.addr",
	"max-bytes":  "import.max_bytes",
	"repos-dir":  "import.repos_dir",
	"log-level":  "log.level",
	"log-format": "log.format",
	"seed":       "seed",
}

// RegisterFlags adds the flags every subcommand shares.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("driver", "sqlite", "Storage driver: sqlite, file or memory")
	fs.String("db", "flashdeck.db", "Path to the SQLite database or JSON file")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "text", "Log format: text or json")
}

// Load builds the configuration with the following precedence (highest to lowest):
//  1. Flags set on the command line
//  2. Environment variables (FLASHDECK_ prefix)
//  3. Config file named by --config
//  4. Default values
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if fs != nil {
		if path, err := fs.GetString("config"); err == nil && path != "" {
			if err := loadFile(k, path); err != nil {
				return nil, fmt.Errorf("loading config file %q: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if fs != nil {
		err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// envKey maps FLASHDECK_IMPORT_MAX_BYTES to import.max_bytes: the first
// underscore separates the section from the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "seed" {
		return key
	}
	return strings.Replace(key, "_", ".", 1)
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist")
		}
		return err
	}
	return k.Load(file.Provider(path), yaml.Parser())
}
