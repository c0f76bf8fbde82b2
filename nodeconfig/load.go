package nodeconfig

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Load reads a TOML configuration file at path, overlaying it on top of
// DefaultConfig so a file only needs to set the options it wants to
// change. An empty path loads defaults with no file on disk.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("nodeconfig: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("nodeconfig: decode %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault writes DefaultConfig to path as a TOML document, for
// operators bootstrapping a fresh data directory.
func WriteDefault(path string) error {
	return WriteConfig(path, DefaultConfig())
}

// WriteConfig serializes cfg to path as TOML.
func WriteConfig(path string, cfg Config) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("nodeconfig: marshal: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
