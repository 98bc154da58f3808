// Config loading for the xmigrate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyBackupDir         = "backup_dir"
	cfgKeyAttachmentsDir    = "attachments_dir"
	cfgKeyOutputDir         = "output_dir"
	cfgKeyDataDir           = "data_dir"
	cfgKeyProjectKeyPattern = "project_key_pattern"
	cfgKeyTargetIndex       = "target_index"

	defaultOutputDir = "export"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# xmigrate configuration

# Directory holding the extracted backup JSON files
# (tests*.json, datasets*.json, testSets*.json, issue_lookup_cache.json).
backup_dir: backup

# Directory holding extracted attachment files and their
# metadata_*.json descriptors.
attachments_dir: attachments

# Directory export artifacts are written to.
output_dir: export

# Target index snapshot file (optional; defaults to
# <backup_dir>/target_index.json).
# target_index:

# Issue-key validation pattern for manual resolution (optional).
# project_key_pattern: ^[A-Z][A-Z0-9]*-[1-9][0-9]*$

# Session data directory (optional; overridable by --data-dir flag).
# data_dir:
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyOutputDir, defaultOutputDir)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file
// does not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
