// Package config loads tunedex settings from a JSON-with-comments file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	BooksDir string `json:"books_dir"` // root of the numbered book folders
	DBPath   string `json:"db_path"`   // catalog database file
}

// Default returns the default configuration, rooted in the user's home
// directory where possible.
func Default() Config {
	cfg := Config{
		BooksDir: "abc_books",
		DBPath:   "tunes.db",
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.BooksDir = filepath.Join(home, "abc_books")
		cfg.DBPath = filepath.Join(home, ".local", "share", "tunedex", "tunes.db")
	}

	return cfg
}

// Path returns the config file location:
// $XDG_CONFIG_HOME/tunedex/config.json, falling back to
// ~/.config/tunedex/config.json. Empty if no home directory is available.
func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tunedex", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "tunedex", "config.json")
}

// Load reads the config file at path, layered over Default. A missing file is
// not an error; a malformed one is. The file may contain comments and
// trailing commas (HuJSON).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	var file Config
	if err := json.Unmarshal(std, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.BooksDir != "" {
		cfg.BooksDir = file.BooksDir
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}

	return cfg, nil
}
