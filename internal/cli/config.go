package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	envStore   = "SHADERGRAPH_STORE"
	envMode    = "SHADERGRAPH_MODE"
	envRepair  = "SHADERGRAPH_REPAIR"
	envCatalog = "SHADERGRAPH_CATALOG"
)

// defaultMode is the node set offered when no mode is configured.
const defaultMode = "neo"

// Config is the CLI configuration. Precedence, lowest first: defaults,
// config file, environment (including a .env file in the working
// directory), flags.
//
//	# ~/.config/shadergraph/config.toml
//	store   = "badger:///home/me/.local/share/shadergraph"
//	mode    = "sysl"
//	repair  = true
//	cache   = true
//	catalog = "/home/me/nodes/extra.toml"
type Config struct {
	Store   string `toml:"store"`
	Mode    string `toml:"mode"`
	Repair  bool   `toml:"repair"`
	Cache   bool   `toml:"cache"`
	Catalog string `toml:"catalog"`
}

func defaultConfig() Config {
	return Config{Mode: defaultMode, Cache: true}
}

// loadConfig reads the config file at path, or the default location when
// path is empty, then applies environment overrides. A missing default
// config file is not an error; a missing explicit one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(envStore)); v != "" {
		cfg.Store = v
	}
	if v := strings.TrimSpace(os.Getenv(envMode)); v != "" {
		cfg.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv(envCatalog)); v != "" {
		cfg.Catalog = v
	}
	if v := strings.TrimSpace(os.Getenv(envRepair)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envRepair, err)
		}
		cfg.Repair = b
	}
	return nil
}
