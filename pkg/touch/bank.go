package touch

import (
	"fmt"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/pad"
)

// Bank holds one filter per sensor of a layout.
type Bank struct {
	filters []Filter
}

// NewBank builds a filter per sensor from the calibrated baselines. The filter
// kind follows t.FilterType: ehma selects NormalizedFilter, anything else DataFilter.
func NewBank(layout *pad.Layout, baselines []float32, t *config.Tunables) (*Bank, error) {
	if err := layout.CheckLen("baselines", len(baselines)); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("touch: nil tunables")
	}

	b := &Bank{filters: make([]Filter, len(baselines))}
	for i, base := range baselines {
		if t.FilterType == config.FilterEHMA {
			b.filters[i] = NewNormalizedFilter(base, t)
		} else {
			b.filters[i] = NewDataFilter(base, t)
		}
	}
	return b, nil
}

// Len returns the number of filters.
func (b *Bank) Len() int {
	return len(b.filters)
}

// Update feeds the raw reading of sensor i.
func (b *Bank) Update(i pad.SensorIndex, raw int16, t *config.Tunables) bool {
	return b.filters[i].Update(raw, t)
}

// Filter returns the filter of sensor i.
func (b *Bank) Filter(i pad.SensorIndex) Filter {
	return b.filters[i]
}

// Pressed returns the latest state of sensor i.
func (b *Bank) Pressed(i pad.SensorIndex) bool {
	return b.filters[i].Pressed()
}

// Value returns the latest value of sensor i relative to its baseline.
func (b *Bank) Value(i pad.SensorIndex) float32 {
	return b.filters[i].Value()
}

// Baseline returns the baseline of sensor i.
func (b *Bank) Baseline(i pad.SensorIndex) float32 {
	return b.filters[i].Baseline()
}

// PressedStates fills dst with the latest state of every sensor.
func (b *Bank) PressedStates(dst []bool) []bool {
	dst = dst[:0]
	for _, f := range b.filters {
		dst = append(dst, f.Pressed())
	}
	return dst
}
