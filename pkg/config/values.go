package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownValue is returned when a named value does not exist.
var ErrUnknownValue = errors.New("config value not found")

// Kind is the scalar type of a named value.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindUint64
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindUint64:
		return "uint64_t"
	case KindBool:
		return "bool"
	}
	return "invalid"
}

// Value is one named scalar tunable.
type Value struct {
	Name string
	Kind Kind

	f32 func(*Tunables) *float32
	i   func(*Tunables) *int
	u64 func(*Tunables) *uint64
	b   func(*Tunables) *bool
}

// Get formats the value held in t.
func (v Value) Get(t *Tunables) string {
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(float64(*v.f32(t)), 'f', -1, 32)
	case KindInt:
		return strconv.Itoa(*v.i(t))
	case KindUint64:
		return strconv.FormatUint(*v.u64(t), 10)
	case KindBool:
		if *v.b(t) {
			return "1"
		}
		return "0"
	}
	return ""
}

// Set parses text and stores it in t. On error t is left unchanged.
func (v Value) Set(t *Tunables, text string) error {
	text = strings.TrimSpace(text)
	switch v.Kind {
	case KindFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.Name, err)
		}
		*v.f32(t) = float32(f)
	case KindInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.Name, err)
		}
		*v.i(t) = n
	case KindUint64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.Name, err)
		}
		*v.u64(t) = n
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.Name, err)
		}
		*v.b(t) = b
	}
	return nil
}

func floatValue(name string, f func(*Tunables) *float32) Value {
	return Value{Name: name, Kind: KindFloat, f32: f}
}

func intValue(name string, f func(*Tunables) *int) Value {
	return Value{Name: name, Kind: KindInt, i: f}
}

func uintValue(name string, f func(*Tunables) *uint64) Value {
	return Value{Name: name, Kind: KindUint64, u64: f}
}

func boolValue(name string, f func(*Tunables) *bool) Value {
	return Value{Name: name, Kind: KindBool, b: f}
}

// values lists every tunable that can be read or written by name, in display order.
var values = []Value{
	floatValue("threshold_factor", func(t *Tunables) *float32 { return &t.ThresholdFactor }),
	floatValue("threshold_value", func(t *Tunables) *float32 { return &t.ThresholdValue }),
	intValue("threshold_type", func(t *Tunables) *int { return &t.ThresholdType }),
	uintValue("threshold_sampling_duration_us", func(t *Tunables) *uint64 { return &t.ThresholdSamplingDurationUS }),
	uintValue("sampling_duration_us", func(t *Tunables) *uint64 { return &t.SamplingDurationUS }),
	uintValue("serial_teleplot_report_interval_us", func(t *Tunables) *uint64 { return &t.TeleplotReportIntervalUS }),
	boolValue("teleplot_normalize_values", func(t *Tunables) *bool { return &t.TeleplotNormalizeValues }),
	boolValue("usb_hid_enabled", func(t *Tunables) *bool { return &t.USBHIDEnabled }),
	intValue("filter_type", func(t *Tunables) *int { return &t.FilterType }),
	floatValue("iir_filter_b", func(t *Tunables) *float32 { return &t.IIRFilterB }),
	uintValue("debounce_us", func(t *Tunables) *uint64 { return &t.DebounceUS }),
	floatValue("hysteresis", func(t *Tunables) *float32 { return &t.Hysteresis }),
	uintValue("hma_window_size", func(t *Tunables) *uint64 { return &t.HMAWindowSize }),
	uintValue("press_threshold", func(t *Tunables) *uint64 { return &t.PressThreshold }),
	uintValue("release_threshold", func(t *Tunables) *uint64 { return &t.ReleaseThreshold }),
	uintValue("warmup_samples", func(t *Tunables) *uint64 { return &t.WarmupSamples }),
}

// Values returns the named value table in display order.
func Values() []Value {
	return append([]Value(nil), values...)
}

// Lookup finds a named value.
func Lookup(name string) (Value, error) {
	for _, v := range values {
		if v.Name == name {
			return v, nil
		}
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnknownValue, name)
}
