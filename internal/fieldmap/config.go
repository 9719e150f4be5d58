// Package fieldmap resolves canonical field keys against the differently
// spelled, aliased, and localized keys that raw measurement records arrive
// with, and builds the catalog of known fields.
//
// Records come from several sources (sheet exports, the capture app, legacy
// imports) that disagree on header names: the same quantity can appear as
// "speed_act", "speed", or a Vietnamese header. This package owns the ordered
// alias tables that map that surface back to canonical keys.
package fieldmap

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prodlens-io/prodlens/internal/config"
	"github.com/prodlens-io/prodlens/internal/tolerance"
)

// Config holds field-mapping configuration loaded from .prodlens.yaml.
type Config struct {
	// RecordAliases maps a record-level canonical key (productName, structure,
	// machineId, machineName, timestamp) to extra raw keys that should resolve
	// to it, tried after the built-in aliases.
	//nolint:tagliatelle // snake_case is intentional for YAML config files
	RecordAliases map[string][]string `yaml:"record_aliases"`

	// FieldAliases maps a canonical field key to extra raw keys for its
	// actual-value lookup, tried after "<key>_act" and "<key>".
	//nolint:tagliatelle // snake_case is intentional for YAML config files
	FieldAliases map[string][]string `yaml:"field_aliases"`

	// Labels maps canonical field keys to display labels, overriding or
	// extending the built-in label table.
	Labels map[string]string `yaml:"labels"`

	// ToleranceCategories overrides the built-in tolerance category table
	// when non-empty.
	//nolint:tagliatelle // snake_case is intentional for YAML config files
	ToleranceCategories []tolerance.Category `yaml:"tolerance_categories"`
}

// DefaultConfigPath is the default location for the prodlens configuration file.
// Uses hidden file format following common tool conventions (.eslintrc, .prettierrc, etc.).
const DefaultConfigPath = ".prodlens.yaml"

// ConfigPathEnvVar is the environment variable name for custom config path.
const ConfigPathEnvVar = "PRODLENS_CONFIG_PATH"

// LoadConfig loads field-mapping configuration from a YAML file at the given path.
//
// Behavior:
//   - Returns empty config (not error) if file doesn't exist - the file is optional
//   - Returns empty config + logs warning if YAML is invalid (graceful degradation)
//   - Returns populated config on success
//
// This graceful degradation ensures the server can start on the built-in
// alias/label/tolerance tables even without a config file.
func LoadConfig(path string) (*Config, error) {
	cfg := emptyConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Missing file is OK - built-ins cover everything
			slog.Debug("Config file not found, continuing with built-in field mappings",
				slog.String("path", path))

			return cfg, nil
		}

		// Other read errors (permissions, etc.) - log warning and continue
		slog.Warn("Failed to read config file, continuing with built-in field mappings",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return cfg, nil
	}

	// Empty file is valid - just no extras
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		// Invalid YAML - log warning and continue with empty config
		slog.Warn("Failed to parse config file, continuing with built-in field mappings",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return emptyConfig(), nil
	}

	// Ensure maps are initialized even if YAML had nil/empty sections
	if cfg.RecordAliases == nil {
		cfg.RecordAliases = make(map[string][]string)
	}

	if cfg.FieldAliases == nil {
		cfg.FieldAliases = make(map[string][]string)
	}

	if cfg.Labels == nil {
		cfg.Labels = make(map[string]string)
	}

	return cfg, nil
}

// LoadConfigFromEnv loads config from the path specified in PRODLENS_CONFIG_PATH
// environment variable. Falls back to ".prodlens.yaml" in current directory if not set.
func LoadConfigFromEnv() (*Config, error) {
	path := config.GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadConfig(path)
}

func emptyConfig() *Config {
	return &Config{
		RecordAliases: make(map[string][]string),
		FieldAliases:  make(map[string][]string),
		Labels:        make(map[string]string),
	}
}
