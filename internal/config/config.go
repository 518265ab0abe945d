package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level settings structure for a session. A user-supplied
// YAML file is layered over the built-in defaults key by key, so partial files
// only override what they name.
type Settings struct {
	Window      WindowSettings               `mapstructure:"window" yaml:"window"`
	Monitor     MonitorSettings              `mapstructure:"monitor" yaml:"monitor"`
	Mouse       MouseSettings                `mapstructure:"mouse" yaml:"mouse"`
	MRI         MRISettings                  `mapstructure:"mri" yaml:"mri"`
	Eyetracker  EyetrackerSettings           `mapstructure:"eyetracker" yaml:"eyetracker"`
	Preferences map[string]map[string]string `mapstructure:"preferences" yaml:"preferences,omitempty"`
	Output      OutputSettings               `mapstructure:"output" yaml:"output"`
	Logging     LoggingSettings              `mapstructure:"logging" yaml:"logging"`
	Results     ResultsSettings              `mapstructure:"results" yaml:"results"`
}

// WindowSettings is passed through to the presentation toolkit's window.
type WindowSettings struct {
	Size       []int  `mapstructure:"size" yaml:"size"`
	Units      string `mapstructure:"units" yaml:"units"`
	Fullscreen bool   `mapstructure:"fullscreen" yaml:"fullscreen"`
	Color      []int  `mapstructure:"color" yaml:"color"`
}

// MonitorSettings describes the physical display profile.
type MonitorSettings struct {
	Name       string  `mapstructure:"name" yaml:"name"`
	WidthCM    float64 `mapstructure:"width_cm" yaml:"width_cm"`
	DistanceCM float64 `mapstructure:"distance_cm" yaml:"distance_cm"`
	Gamma      float64 `mapstructure:"gamma" yaml:"gamma"`
}

// MouseSettings holds pointer options.
type MouseSettings struct {
	Visible bool `mapstructure:"visible" yaml:"visible"`
}

// MRISettings configures scanner synchronization. When Simulate is true the
// session starts a pulse emulator instead of waiting for real triggers.
type MRISettings struct {
	Simulate bool    `mapstructure:"simulate" yaml:"simulate"`
	TR       float64 `mapstructure:"tr" yaml:"tr"`
	Volumes  int     `mapstructure:"volumes" yaml:"volumes"`
	SyncKey  string  `mapstructure:"sync_key" yaml:"sync_key"`
}

// EyetrackerSettings configures the eyetracker device, if any.
type EyetrackerSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// OutputSettings controls where run artifacts are written.
type OutputSettings struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// LoggingSettings holds rotation knobs for the per-run logfile.
type LoggingSettings struct {
	MaxSize    int  `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ResultsSettings configures the optional run archive database.
type ResultsSettings struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
}

// setDefaults registers the built-in default settings.
func setDefaults(v *viper.Viper) {
	// Window defaults
	v.SetDefault("window.size", []int{1920, 1080})
	v.SetDefault("window.units", "deg")
	v.SetDefault("window.fullscreen", true)
	v.SetDefault("window.color", []int{0, 0, 0})

	// Monitor defaults
	v.SetDefault("monitor.name", "default")
	v.SetDefault("monitor.width_cm", 50.0)
	v.SetDefault("monitor.distance_cm", 80.0)
	v.SetDefault("monitor.gamma", 1.0)

	v.SetDefault("mouse.visible", false)

	// MRI defaults
	v.SetDefault("mri.simulate", false)
	v.SetDefault("mri.tr", 2.0)
	v.SetDefault("mri.volumes", 10)
	v.SetDefault("mri.sync_key", "t")

	// Eyetracker defaults
	v.SetDefault("eyetracker.enabled", false)
	v.SetDefault("eyetracker.address", "100.1.1.1")
	v.SetDefault("eyetracker.model", "eyelink")

	v.SetDefault("output.directory", "logs")

	// Logging defaults
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Results archive defaults (disabled unless configured)
	v.SetDefault("results.enabled", false)
	v.SetDefault("results.host", "localhost")
	v.SetDefault("results.port", "5432")
	v.SetDefault("results.user", "psypy")
	v.SetDefault("results.password", "")
	v.SetDefault("results.dbname", "psypy")
}

// Load reads settings with Viper. If path is empty, the defaults (plus any
// PSYPY_* environment overrides) are returned; a non-empty path must point at
// an existing YAML file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("PSYPY") // e.g., PSYPY_OUTPUT_DIRECTORY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("settings file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode settings into struct: %w", err)
	}
	return &s, nil
}

// Save writes the fully resolved settings to path as YAML, creating the
// parent directory if needed. Each run keeps a snapshot of the settings it
// actually ran with.
func (s *Settings) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create settings directory: %w", err)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write settings snapshot: %w", err)
	}
	return nil
}
