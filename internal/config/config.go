package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DBPath      string `json:"db_path"`
	NotesRoot   string `json:"notes_root"`
	DefaultChat string `json:"default_chat"`
}

func Default(root string) Config {
	return Config{
		DBPath:      filepath.Join(root, "tasklog.db"),
		NotesRoot:   root,
		DefaultChat: "default",
	}
}

func Path(root string) string {
	return filepath.Join(root, "config.json")
}

func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Load reads the config at root, falling back to defaults when the file
// does not exist yet.
func Load(root string) (Config, error) {
	cfg := Default(root)

	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = Default(root).DBPath
	}
	if cfg.NotesRoot == "" {
		cfg.NotesRoot = root
	}
	if cfg.DefaultChat == "" {
		cfg.DefaultChat = "default"
	}
	return cfg, nil
}

func Save(root string, cfg Config) error {
	path := Path(root)
	if err := EnsureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
