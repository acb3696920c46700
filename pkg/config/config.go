// Package config holds the settings shared by the editor core and the
// cutgraph command-line tools.
//
// Settings come from three layers, later layers winning:
//
//  1. [Default] values
//  2. an optional TOML file (see [Path] for the default location)
//  3. command-line flags, applied by the caller after [Load]
//
// Example file:
//
//	[grid]
//	spacing = 16
//	collision_offset = 7
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cutgraph/pkg/errors"
)

const appName = "cutgraph"

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Grid is the geometry of the editing surface. All values are in world units.
type Grid struct {
	// Spacing is the snapping grid. Every node position is a multiple of it,
	// and a cut's box is padded by one Spacing around its contents.
	Spacing float64 `toml:"spacing" json:"spacing"`

	// CollisionOffset is the margin added around a draw box for overlap tests.
	CollisionOffset float64 `toml:"collision_offset" json:"collision_offset"`

	// EmptyCutSize is the side of a cut with no children.
	EmptyCutSize float64 `toml:"empty_cut_size" json:"empty_cut_size"`

	// StatementSize is the side of a statement or placeholder.
	StatementSize float64 `toml:"statement_size" json:"statement_size"`
}

// DefaultGrid returns the standard 16-unit grid.
func DefaultGrid() Grid {
	const gs = 16
	return Grid{
		Spacing:         gs,
		CollisionOffset: gs/2 - 1,
		EmptyCutSize:    4 * gs,
		StatementSize:   2 * gs,
	}
}

// Validate checks the grid for values the layout engine cannot work with.
func (g Grid) Validate() error {
	switch {
	case g.Spacing <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "grid spacing must be positive, got %g", g.Spacing)
	case g.CollisionOffset < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "collision offset must not be negative, got %g", g.CollisionOffset)
	case g.EmptyCutSize <= 0 || g.StatementSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "node sizes must be positive")
	}
	return nil
}

// Store selects and configures the document store.
type Store struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	KeyPrefix string `toml:"key_prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr          string `toml:"addr"`
	Metrics       bool   `toml:"metrics"`
	MaxBodyBytes  int64  `toml:"max_body_bytes"`
	ShutdownGrace string `toml:"shutdown_grace"`
}

// History configures undo/redo.
type History struct {
	Capacity int `toml:"capacity"`
}

// Config is the full application configuration.
type Config struct {
	Grid    Grid    `toml:"grid"`
	Store   Store   `toml:"store"`
	Server  Server  `toml:"server"`
	History History `toml:"history"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: DefaultGrid(),
		Store: Store{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			KeyPrefix: appName + ":doc:",
		},
		Server: Server{
			Addr:          "127.0.0.1:8080",
			Metrics:       true,
			MaxBodyBytes:  1 << 20,
			ShutdownGrace: "5s",
		},
		History: History{Capacity: 50},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis backend requires redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want %s or %s)", c.Store.Backend, BackendFile, BackendRedis)
	}
	if c.History.Capacity < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "history capacity must be at least 1")
	}
	return nil
}

// Load reads the TOML file at path on top of [Default]. A missing file is
// not an error; the defaults are returned. An empty path means [Path].
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Path returns the default config file location using the XDG standard
// (~/.config/cutgraph/config.toml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Dir returns the configuration directory (~/.config/cutgraph).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DataDir returns the directory used by the file store when Store.Dir is
// empty (~/.local/share/cutgraph/documents).
func DataDir() (string, error) {
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, appName, "documents"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "documents"), nil
}
