// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Account  AccountConfig  `toml:"account"`
	Server   ServerSection  `toml:"server"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Lang     *string  `toml:"lang"`
	Words    *int     `toml:"words"`
	Duration *string  `toml:"duration"`
	CapsPct  *float64 `toml:"caps"`
	PunctPct *float64 `toml:"punct"`
	PunctSet *string  `toml:"punct-set"`
}

// AccountConfig identifies the user results are submitted for.
type AccountConfig struct {
	UserID *string `toml:"user-id"`
	Email  *string `toml:"email"`
	Token  *string `toml:"token"`
}

// ServerSection points the client at a score server.
type ServerSection struct {
	URL *string `toml:"url"`
}

// ParseError reports a config file that exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	var perr toml.ParseError
	if errors.As(e.Err, &perr) {
		return fmt.Sprintf("%s: line %d: %s", e.Path, perr.Position.Line, perr.Message)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, &ParseError{Path: path, Err: err}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, &ParseError{Path: path, Err: fmt.Errorf("unknown key %q", undecoded[0].String())}
	}
	return cfg, nil
}
