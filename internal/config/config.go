// Package config loads the steamfix configuration from
// ~/.config/steamfix/config.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Theme holds the colors used for terminal output.
type Theme struct {
	Accent  string `toml:"accent"`
	Warning string `toml:"warning"`
	Error   string `toml:"error"`
	Muted   string `toml:"muted"`
}

// Config holds the steamfix configuration.
type Config struct {
	SteamPath    string `toml:"steam_path"`    // Steam installation root; auto-detected when empty
	BackupDir    string `toml:"backup_dir"`    // where backup records go
	BackupRetain int    `toml:"backup_retain"` // records kept by "backup prune"; minimum 1
	Theme        Theme  `toml:"theme"`
}

// DefaultBackupRetain is the number of backup records "backup prune"
// keeps when backup_retain is not configured.
const DefaultBackupRetain = 10

// Default returns the default configuration.
func Default() Config {
	return Config{
		SteamPath:    "",
		BackupDir:    "",
		BackupRetain: DefaultBackupRetain,
		Theme: Theme{
			Accent:  "10",  // green
			Warning: "11",  // yellow
			Error:   "9",   // red
			Muted:   "240", // gray
		},
	}
}

// BackupPath returns the directory for backup records. Falls back to
// ~/.local/share/steamfix/backups when backup_dir is not configured.
func (c *Config) BackupPath() (string, error) {
	if c.BackupDir != "" {
		return c.BackupDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate backup dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "steamfix", "backups"), nil
}

// ValidatePath checks that the path is absolute or starts with ~.
// Returns an error if the path is relative (like "." or "..").
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // empty means not configured
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "steamfix", "config.toml"), nil
}

// Load reads config from ~/.config/steamfix/config.toml.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Default(), nil
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidatePath(cfg.SteamPath, "steam_path"); err != nil {
		return Default(), err
	}
	if err := ValidatePath(cfg.BackupDir, "backup_dir"); err != nil {
		return Default(), err
	}

	// Shells don't expand ~ inside config files.
	if cfg.SteamPath != "" {
		expanded, err := expandPath(cfg.SteamPath)
		if err != nil {
			return Default(), fmt.Errorf("expand steam_path: %w", err)
		}
		cfg.SteamPath = expanded
	}
	if cfg.BackupDir != "" {
		expanded, err := expandPath(cfg.BackupDir)
		if err != nil {
			return Default(), fmt.Errorf("expand backup_dir: %w", err)
		}
		cfg.BackupDir = expanded
	}

	if cfg.BackupRetain < 0 {
		return Default(), fmt.Errorf("invalid backup_retain %d: must not be negative", cfg.BackupRetain)
	}

	return cfg, nil
}

const defaultConfig = `# steamfix configuration

# Steam installation root. Auto-detected when not set.
# Must be an absolute path or start with ~ (no relative paths like "." or "..")
# steam_path = "~/.steam/steam"

# Where backup records are stored.
# Default: ~/.local/share/steamfix/backups
# backup_dir = "~/.local/share/steamfix/backups"

# How many backup records "steamfix backup prune" keeps (most recent first).
# The most recent record is never deleted.
backup_retain = 10

# Terminal colors (ANSI color numbers or hex like "#ff5f87")
# [theme]
# accent = "10"
# warning = "11"
# error = "9"
# muted = "240"
`

// Init creates a default config file at ~/.config/steamfix/config.toml.
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
