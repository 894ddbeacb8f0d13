package sensor

import (
	"fmt"

	"github.com/itohio/capdance/pkg/pad"
)

// SequentialPoller shares a single channel between all sensors: each sensor is
// re-armed on its own pin and read in turn.
type SequentialPoller struct {
	layout *pad.Layout
	bank   Bank
}

// Init configures every sensor.
func (p *SequentialPoller) Init() error {
	return configureAll(p.layout, p.bank)
}

// Poll re-arms and reads every sensor in index order.
func (p *SequentialPoller) Poll(dst []int16) error {
	if err := p.layout.CheckLen("poll buffer", len(dst)); err != nil {
		return err
	}
	for i := range dst {
		s := p.layout.Sensor(pad.SensorIndex(i))
		if err := p.bank.Arm(s); err != nil {
			return fmt.Errorf("arm sensor %d (pin %d): %w", i, s.Pin, err)
		}
		counter, err := p.bank.Read(s)
		if err != nil {
			return fmt.Errorf("read sensor %d (pin %d): %w", i, s.Pin, err)
		}
		dst[i] = Raw(counter)
	}
	return nil
}

// Len returns the number of sensors.
func (p *SequentialPoller) Len() int {
	return p.layout.Len()
}

// ParallelPoller keeps every channel running and reads the groups one after another.
// Within a group the sensors are read in index order.
type ParallelPoller struct {
	layout *pad.Layout
	bank   Bank
}

// Init configures and arms every channel once.
func (p *ParallelPoller) Init() error {
	if err := configureAll(p.layout, p.bank); err != nil {
		return err
	}
	for i, s := range p.layout.Sensors() {
		if err := p.bank.Arm(s); err != nil {
			return fmt.Errorf("arm sensor %d (pin %d): %w", i, s.Pin, err)
		}
	}
	return nil
}

// Poll reads every group.
func (p *ParallelPoller) Poll(dst []int16) error {
	if err := p.layout.CheckLen("poll buffer", len(dst)); err != nil {
		return err
	}
	for _, group := range p.layout.Groups() {
		for _, i := range group {
			s := p.layout.Sensor(i)
			counter, err := p.bank.Read(s)
			if err != nil {
				return fmt.Errorf("read sensor %d (pin %d): %w", i, s.Pin, err)
			}
			dst[i] = Raw(counter)
		}
	}
	return nil
}

// Len returns the number of sensors.
func (p *ParallelPoller) Len() int {
	return p.layout.Len()
}

func configureAll(layout *pad.Layout, bank Bank) error {
	for i, s := range layout.Sensors() {
		if err := bank.Configure(s); err != nil {
			return fmt.Errorf("configure sensor %d (pin %d): %w", i, s.Pin, err)
		}
	}
	return nil
}
