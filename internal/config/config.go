package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/dialight/internal/light"
)

// Bulb backends
const (
	BackendLIFX = "lifx"
	BackendHue  = "hue"
)

// Config represents the application configuration
type Config struct {
	Serial          SerialConfig      `yaml:"serial"`
	Light           LightConfig       `yaml:"light"`
	Bulb            BulbConfig        `yaml:"bulb"`
	Journal         JournalConfig     `yaml:"journal"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	Log             LogConfig         `yaml:"log"`
	Script          string            `yaml:"script"`           // Optional Lua hook for unknown events
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// SerialConfig describes the encoder board connection
type SerialConfig struct {
	Port          string `yaml:"port"` // Device path, or "-" for stdin
	Baud          int    `yaml:"baud"`
	MaxLineLength int    `yaml:"max_line_length"`
}

// LightConfig holds dial ranges and the state pushed at startup.
// Pointer fields distinguish "unset" from an explicit zero.
type LightConfig struct {
	On             *bool    `yaml:"on"`
	Brightness     *float64 `yaml:"brightness"`
	BrightnessStep float64  `yaml:"brightness_step"`
	Kelvin         int      `yaml:"kelvin"`
	KelvinMin      int      `yaml:"kelvin_min"`
	KelvinMax      int      `yaml:"kelvin_max"`
	KelvinSteps    int      `yaml:"kelvin_steps"` // Detents for a full sweep of the kelvin range
}

// BulbConfig selects and configures the bulb backend
type BulbConfig struct {
	Backend   string     `yaml:"backend"`
	RateLimit float64    `yaml:"rate_limit"` // Max commands per second, 0 = unpaced
	LIFX      LIFXConfig `yaml:"lifx"`
	Hue       HueConfig  `yaml:"hue"`
}

// LIFXConfig contains LAN protocol settings
type LIFXConfig struct {
	Broadcast string `yaml:"broadcast"` // host:port
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge string `yaml:"bridge"`
	Token  string `yaml:"token"`
	Group  int    `yaml:"group"` // 0 = all lights
}

// JournalConfig contains event journal settings
type JournalConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Path            string   `yaml:"path"`
	RetentionDays   int      `yaml:"retention_days"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
}

// Retention returns the retention window as a duration
func (c *JournalConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Addr returns host:port for the listener
func (c *HealthcheckConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expands environment variables and
// applies defaults
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	defaults := light.DefaultParams()

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// Serial defaults match the Raspberry Pi primary UART
	if cfg.Serial.Port == "" {
		cfg.Serial.Port = "/dev/ttyAMA0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.MaxLineLength == 0 {
		cfg.Serial.MaxLineLength = 256
	}

	// Light defaults
	if cfg.Light.On == nil {
		cfg.Light.On = &defaults.On
	}
	if cfg.Light.Brightness == nil {
		cfg.Light.Brightness = &defaults.Brightness
	}
	if cfg.Light.BrightnessStep == 0 {
		cfg.Light.BrightnessStep = defaults.BrightnessStep
	}
	if cfg.Light.KelvinMin == 0 {
		cfg.Light.KelvinMin = defaults.KelvinMin
	}
	if cfg.Light.KelvinMax == 0 {
		cfg.Light.KelvinMax = defaults.KelvinMax
	}
	if cfg.Light.KelvinSteps == 0 {
		cfg.Light.KelvinSteps = defaults.KelvinSteps
	}
	if cfg.Light.Kelvin == 0 {
		cfg.Light.Kelvin = defaults.Kelvin
	}

	// Bulb defaults. Pacing is opt-in since it blocks the control loop
	if cfg.Bulb.Backend == "" {
		cfg.Bulb.Backend = BackendLIFX
	}
	if cfg.Bulb.LIFX.Broadcast == "" {
		cfg.Bulb.LIFX.Broadcast = "255.255.255.255:56700"
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "./dialight.sqlite"
	}
	if cfg.Journal.RetentionDays == 0 {
		cfg.Journal.RetentionDays = 30
	}
	if cfg.Journal.CleanupInterval == 0 {
		cfg.Journal.CleanupInterval = Duration(24 * time.Hour)
	}

	// Healthcheck defaults
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// LightParams converts the light section into controller parameters
func (cfg *Config) LightParams() light.Params {
	return light.Params{
		On:             *cfg.Light.On,
		Brightness:     *cfg.Light.Brightness,
		BrightnessStep: cfg.Light.BrightnessStep,
		Kelvin:         cfg.Light.Kelvin,
		KelvinMin:      cfg.Light.KelvinMin,
		KelvinMax:      cfg.Light.KelvinMax,
		KelvinSteps:    cfg.Light.KelvinSteps,
	}
}

// Validate checks settings that have no sensible default
func (cfg *Config) Validate() error {
	if err := cfg.LightParams().Validate(); err != nil {
		return fmt.Errorf("light: %w", err)
	}

	switch cfg.Bulb.Backend {
	case BackendLIFX:
	case BackendHue:
		if cfg.Bulb.Hue.Bridge == "" {
			return fmt.Errorf("bulb.hue.bridge is required for the hue backend")
		}
	default:
		return fmt.Errorf("unknown bulb backend %q", cfg.Bulb.Backend)
	}

	if cfg.Serial.Baud < 0 || cfg.Serial.MaxLineLength < 0 {
		return fmt.Errorf("serial baud and max_line_length must not be negative")
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
