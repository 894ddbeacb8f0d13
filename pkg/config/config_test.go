package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/capdance/pkg/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, pad.LayoutITG8, cfg.Pad.Layout)
	assert.Equal(t, 1, cfg.Pad.Player)
	assert.Equal(t, int16(600), cfg.Mock.Baseline)
	assert.Equal(t, 50*time.Microsecond, cfg.Mock.ReadDelay)

	tun := cfg.Tunables
	assert.Equal(t, float32(1.5), tun.ThresholdFactor)
	assert.Equal(t, float32(150), tun.ThresholdValue)
	assert.Equal(t, ThresholdValue, tun.ThresholdType)
	assert.Equal(t, 2*time.Second, tun.CalibrationDuration())
	assert.Equal(t, 900*time.Microsecond, tun.SamplingWindow())
	assert.Equal(t, 80*time.Millisecond, tun.TeleplotInterval())
	assert.True(t, tun.TeleplotNormalizeValues)
	assert.True(t, tun.USBHIDEnabled)
	assert.Equal(t, FilterHMA, tun.FilterType)
	assert.Equal(t, float32(0.8), tun.IIRFilterB)
	assert.Equal(t, time.Duration(0), tun.Debounce())
	assert.Equal(t, uint64(16), tun.HMAWindowSize)
	assert.NoError(t, tun.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	name := writeTemp(t, `
version: 1
serial:
  port: "/dev/ttyUSB1"
  baud_rate: 9600
  teleplot_port: "/dev/ttyUSB2"
  summary_sensor: 2

pad:
  layout: pump
  player: 2

mqtt:
  broker: "tcp://localhost:1883"
  topic: "pads/left"

mock:
  baseline: 700
  read_delay: 10us

tunables:
  threshold_type: 0
  threshold_factor: 2
  filter_type: 1
  hysteresis: 0.05
  debounce_us: 10000
  hma_window_size: 32
  press_threshold: 200
  release_threshold: 120
`)

	cfg, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "/dev/ttyUSB2", cfg.Serial.TeleplotPort)
	assert.Equal(t, 2, cfg.Serial.SummarySensor)
	assert.Equal(t, pad.LayoutPump, cfg.Pad.Layout)
	assert.Equal(t, 2, cfg.Pad.Player)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "pads/left", cfg.MQTT.Topic)
	assert.Equal(t, "capdance", cfg.MQTT.ClientID) // default
	assert.Equal(t, int16(700), cfg.Mock.Baseline)
	assert.Equal(t, 10*time.Microsecond, cfg.Mock.ReadDelay)

	tun := cfg.Tunables
	assert.Equal(t, ThresholdFactor, tun.ThresholdType)
	assert.Equal(t, float32(2), tun.ThresholdFactor)
	assert.Equal(t, FilterAvg, tun.FilterType)
	assert.True(t, tun.Windowed())
	assert.Equal(t, float32(0.05), tun.Hysteresis)
	assert.Equal(t, 10*time.Millisecond, tun.Debounce())
	assert.Equal(t, uint64(32), tun.HMAWindowSize)
	assert.Equal(t, uint64(200), tun.PressThreshold)
	assert.Equal(t, uint64(120), tun.ReleaseThreshold)
	assert.Equal(t, uint64(1000), tun.SamplingDurationUS) // default
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "invalid: yaml: content: ["))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidTunables(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
tunables:
  press_threshold: 50
  release_threshold: 80
`))
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Nil(t, cfg)
}

func TestLoad_VersionMismatch(t *testing.T) {
	cfg, err := Load(writeTemp(t, "version: 99\n"))
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
serial:
  port: "/dev/ttyACM1"
`))
	require.NoError(t, err)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, DefaultTunables(), cfg.Tunables)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Tunables.HMAWindowSize = 8
	cfg.Tunables.USBHIDEnabled = false

	name := filepath.Join(t.TempDir(), "capdance.yaml")
	require.NoError(t, cfg.Save(name))

	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, uint64(8), loaded.Tunables.HMAWindowSize)
	assert.False(t, loaded.Tunables.USBHIDEnabled)
	assert.Equal(t, CurrentVersion, loaded.Version)
}

func TestConfig_Layout(t *testing.T) {
	cfg := Default()
	l, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, pad.LayoutITG8, l.Name())
	assert.Equal(t, 8, l.Len())

	cfg.Pad.Sensors = []pad.SensorConfig{
		{Button: pad.Start, Pin: 2},
		{Button: pad.Select, Pin: 3},
	}
	cfg.Pad.Polling = "sequential"
	l, err = cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, "custom", l.Name())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []pad.Button{pad.Start, pad.Select}, l.Order())

	cfg.Pad.Polling = "sideways"
	_, err = cfg.Layout()
	assert.Error(t, err)
}

func TestTunables_Threshold(t *testing.T) {
	tun := DefaultTunables()
	assert.Equal(t, float32(650), tun.Threshold(500))

	tun.ThresholdType = ThresholdFactor
	assert.Equal(t, float32(750), tun.Threshold(500))
}

func TestTunables_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tunables)
	}{
		{"threshold type", func(t *Tunables) { t.ThresholdType = 5 }},
		{"filter type", func(t *Tunables) { t.FilterType = 9 }},
		{"window zero", func(t *Tunables) { t.HMAWindowSize = 0 }},
		{"window too large", func(t *Tunables) { t.HMAWindowSize = 257 }},
		{"sampling below buffer", func(t *Tunables) { t.SamplingDurationUS = 100 }},
		{"iir zero", func(t *Tunables) { t.IIRFilterB = 0 }},
		{"release above press", func(t *Tunables) { t.ReleaseThreshold = t.PressThreshold }},
		{"negative hysteresis", func(t *Tunables) { t.Hysteresis = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tun := DefaultTunables()
			tt.mutate(&tun)
			assert.ErrorIs(t, tun.Validate(), ErrInvalidValue)
		})
	}
}
