package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/itohio/capdance/pkg/pad"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 1

// ErrVersionMismatch is returned by Load when the file was written with another schema.
var ErrVersionMismatch = errors.New("config schema version mismatch")

// Config represents the application configuration.
type Config struct {
	Version  int          `yaml:"version"`
	Serial   SerialConfig `yaml:"serial"`
	Pad      PadConfig    `yaml:"pad"`
	MQTT     MQTTConfig   `yaml:"mqtt"`
	Mock     MockConfig   `yaml:"mock"`
	Tunables Tunables     `yaml:"tunables"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port          string `yaml:"port"`           // sampling bridge
	BaudRate      int    `yaml:"baud_rate"`      // sampling bridge baud rate
	TeleplotPort  string `yaml:"teleplot_port"`  // optional telemetry output
	SummarySensor int    `yaml:"summary_sensor"` // sensor index feeding the buffered min/max/mean
}

// PadConfig selects the sensor layout.
type PadConfig struct {
	Layout  string             `yaml:"layout"`  // built-in layout name, ignored when Sensors is set
	Polling string             `yaml:"polling"` // polling type for custom sensors
	Sensors []pad.SensorConfig `yaml:"sensors"`
	Player  int                `yaml:"player"` // keymap, 1 or 2
}

// MQTTConfig enables publishing telemetry to an MQTT broker.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty disables MQTT
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// MockConfig contains mock sensor bank configuration.
type MockConfig struct {
	Baseline    int16         `yaml:"baseline"`     // untouched raw reading
	TouchDelta  int16         `yaml:"touch_delta"`  // raw increase while touched
	NoiseLevel  float64       `yaml:"noise_level"`  // peak noise in raw counts
	ReadDelay   time.Duration `yaml:"read_delay"`   // simulated discharge time per read
	SettleReads int           `yaml:"settle_reads"` // reads per channel that return SettleValue
	SettleValue int16         `yaml:"settle_value"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Pad: PadConfig{
			Layout:  pad.LayoutITG8,
			Polling: pad.PollingSequential.String(),
			Player:  1,
		},
		MQTT: MQTTConfig{
			ClientID: "capdance",
			Topic:    "capdance/telemetry",
		},
		Mock: MockConfig{
			Baseline:    600,
			TouchDelta:  400,
			NoiseLevel:  8,
			ReadDelay:   50 * time.Microsecond,
			SettleReads: 0,
			SettleValue: 0,
		},
		Tunables: DefaultTunables(),
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Version = 0
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Version != 0 && cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: file has %d, want %d", ErrVersionMismatch, cfg.Version, CurrentVersion)
	}

	cfg.ensureDefaults()

	if err := cfg.Tunables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tunables in %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Layout builds the sensor layout: the custom sensor table when present,
// otherwise the named built-in layout.
func (c *Config) Layout() (*pad.Layout, error) {
	if len(c.Pad.Sensors) == 0 {
		return pad.Builtin(c.Pad.Layout)
	}
	polling, err := pad.ParsePolling(c.Pad.Polling)
	if err != nil {
		return nil, err
	}
	return pad.NewLayout("custom", c.Pad.Sensors, nil, polling)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	c.Version = CurrentVersion

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Pad.Layout == "" {
		c.Pad.Layout = def.Pad.Layout
	}
	if c.Pad.Polling == "" {
		c.Pad.Polling = def.Pad.Polling
	}
	if c.Pad.Player == 0 {
		c.Pad.Player = def.Pad.Player
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}

	if c.Mock.Baseline == 0 {
		c.Mock.Baseline = def.Mock.Baseline
	}
	if c.Mock.TouchDelta == 0 {
		c.Mock.TouchDelta = def.Mock.TouchDelta
	}

	c.Tunables.ensureDefaults()
}
