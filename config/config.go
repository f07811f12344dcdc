// Package config lit le fichier TOML du démon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName    = "apptime"
	CfgFile    = "config.toml"
	LogFile    = "apptime.log"
	DefaultWeb = "127.0.0.1:8089"
)

type Values struct {
	DataDir      string   `toml:"data_dir,omitempty"`
	Tracking     Tracking `toml:"tracking"`
	Web          Web      `toml:"web"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Tracking struct {
	// valeurs utilisées tant qu'aucun fichier de données n'existe
	Enabled           bool     `toml:"enabled"`
	InactivityMinutes int      `toml:"inactivity_minutes" validate:"min=1"`
	AutosaveInterval  string   `toml:"autosave_interval" validate:"required"`
	WatchedApps       []string `toml:"watched_apps,multiline"`
	IgnoredApps       []string `toml:"ignored_apps,omitempty,multiline"`
}

type Web struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address" validate:"omitempty,hostname_port"`
}

// Defaults retourne une nouvelle copie, les slices ne sont pas partagées
func Defaults() Values {
	return Values{
		Tracking: Tracking{
			Enabled:           true,
			InactivityMinutes: 20,
			AutosaveInterval:  "5m",
			WatchedApps:       []string{"blender"},
		},
		Web: Web{
			Enabled: true,
			Address: DefaultWeb,
		},
	}
}

// Instance est la configuration chargée et son emplacement
type Instance struct {
	path string
	vals Values
}

func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, CfgFile)
}

func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func LogDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Load lit le fichier de configuration. S'il n'existe pas, il est créé avec
// les valeurs par défaut.
func Load(path string) (*Instance, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := &Instance{path: path, vals: Defaults()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	vals := Defaults()
	if err := toml.Unmarshal(data, &vals); err != nil {
		return nil, fmt.Errorf("Load %s: %w", path, err)
	}
	if err := Validate(vals); err != nil {
		return nil, fmt.Errorf("Load %s: %w", path, err)
	}
	cfg.vals = vals
	return cfg, nil
}

func Validate(vals Values) error {
	if err := validator.New().Struct(vals); err != nil {
		return err
	}
	if _, err := time.ParseDuration(vals.Tracking.AutosaveInterval); err != nil {
		return fmt.Errorf("autosave_interval: %w", err)
	}
	return nil
}

func (c *Instance) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (c *Instance) Path() string {
	return c.path
}

func (c *Instance) DataDir() string {
	if c.vals.DataDir != "" {
		return c.vals.DataDir
	}
	return DefaultDataDir()
}

func (c *Instance) DebugLogging() bool {
	return c.vals.DebugLogging
}

func (c *Instance) TrackingDefaults() (enabled bool, minutes int) {
	return c.vals.Tracking.Enabled, c.vals.Tracking.InactivityMinutes
}

// AutosaveInterval a déjà été validé au chargement
func (c *Instance) AutosaveInterval() time.Duration {
	d, err := time.ParseDuration(c.vals.Tracking.AutosaveInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func (c *Instance) WatchedApps() []string {
	return c.vals.Tracking.WatchedApps
}

func (c *Instance) IgnoredApps() []string {
	return c.vals.Tracking.IgnoredApps
}

func (c *Instance) WebEnabled() bool {
	return c.vals.Web.Enabled
}

func (c *Instance) WebAddress() string {
	if c.vals.Web.Address == "" {
		return DefaultWeb
	}
	return c.vals.Web.Address
}
