package touch

import (
	"sync"
	"testing"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tunables(mutate func(*config.Tunables)) *config.Tunables {
	t := config.DefaultTunables()
	if mutate != nil {
		mutate(&t)
	}
	return &t
}

func TestHysteresis_Step(t *testing.T) {
	h := Hysteresis{Press: 100, Release: 80}

	in := []float32{0, 50, 110, 150, 90, 70}
	want := []bool{false, false, true, true, true, false}
	for i, v := range in {
		assert.Equal(t, want[i], h.Step(v), "step %d value %v", i, v)
	}
}

func TestHysteresis_NoChatterBetweenThresholds(t *testing.T) {
	h := Hysteresis{Press: 100, Release: 80}
	assert.False(t, h.Step(100), "equal to press does not press")
	assert.True(t, h.Step(101))
	for _, v := range []float32{99, 81, 80, 95, 100} {
		assert.True(t, h.Step(v), "value %v", v)
	}
	assert.False(t, h.Step(79.9))
	for _, v := range []float32{80, 99, 100} {
		assert.False(t, h.Step(v), "value %v", v)
	}
}

func TestDataFilter_PressRelease(t *testing.T) {
	tun := tunables(func(t *config.Tunables) { t.HMAWindowSize = 1 })
	f := NewDataFilter(500, tun)

	// window 1 passes raw values straight through
	in := []int16{500, 550, 610, 650, 590, 570}
	want := []bool{false, false, true, true, true, false}
	for i, raw := range in {
		assert.Equal(t, want[i], f.Update(raw, tun), "step %d raw %d", i, raw)
		assert.Equal(t, want[i], f.Pressed())
		assert.Equal(t, float32(raw-500), f.Value())
	}
}

func TestDataFilter_StartsSettled(t *testing.T) {
	tun := tunables(nil)
	f := NewDataFilter(600, tun)
	for i := 0; i < 64; i++ {
		assert.False(t, f.Update(600, tun), "sample %d", i)
		assert.Equal(t, float32(0), f.Value())
	}
}

func TestDataFilter_SustainedTouch(t *testing.T) {
	tun := tunables(nil)
	f := NewDataFilter(600, tun)

	pressedAt := -1
	for i := 0; i < 64; i++ {
		if f.Update(1000, tun) && pressedAt < 0 {
			pressedAt = i
		}
	}
	require.GreaterOrEqual(t, pressedAt, 0)
	assert.Less(t, pressedAt, 16, "HMA(16) reacts within its window")

	for i := 0; i < 64; i++ {
		f.Update(600, tun)
	}
	assert.False(t, f.Pressed())
}

func TestDataFilter_WindowChangeKeepsPressed(t *testing.T) {
	tun := tunables(nil)
	f := NewDataFilter(600, tun)
	for i := 0; i < 64; i++ {
		f.Update(1000, tun)
	}
	require.True(t, f.Pressed())
	require.Equal(t, 16, f.WindowSize())

	next := *tun
	next.HMAWindowSize = 64
	assert.True(t, f.Update(1000, &next))
	assert.Equal(t, 64, f.WindowSize())
	assert.InDelta(t, 400, f.Value(), 1)
}

func TestDataFilter_ThresholdChange(t *testing.T) {
	tun := tunables(func(t *config.Tunables) { t.HMAWindowSize = 1 })
	f := NewDataFilter(0, tun)
	assert.True(t, f.Update(150, tun))

	next := *tun
	next.PressThreshold = 300
	next.ReleaseThreshold = 200
	assert.False(t, f.Update(150, &next), "new release level applies on the next update")
	assert.False(t, f.Update(250, &next))
	assert.True(t, f.Update(301, &next))
}

func TestThresholds(t *testing.T) {
	press, release := Thresholds(500, tunables(nil))
	assert.Equal(t, float32(600), press)
	assert.Equal(t, float32(580), release)
}

func TestNormalizedFilter(t *testing.T) {
	tun := tunables(func(t *config.Tunables) {
		t.FilterType = config.FilterEHMA
		t.IIRFilterB = 1
	})
	f := NewNormalizedFilter(500, tun)

	// fast stage follows the input, slow stage moves half way: 2*50 - 25
	assert.False(t, f.Update(550, tun))
	assert.Equal(t, float32(75), f.Value())
	assert.True(t, f.Update(610, tun))
	assert.True(t, f.Update(590, tun))
	assert.False(t, f.Update(570, tun))
}

func TestNormalizedFilter_AlphaHotSwap(t *testing.T) {
	tun := tunables(func(t *config.Tunables) { t.IIRFilterB = 0.5 })
	f := NewNormalizedFilter(0, tun)
	for i := 0; i < 10; i++ {
		f.Update(200, tun)
	}
	before := f.Value()

	next := *tun
	next.IIRFilterB = 0.25
	f.Update(200, &next)
	assert.Equal(t, float32(0.25), f.Alpha())
	assert.InDelta(t, before, f.Value(), 50, "state survives a coefficient change")
}

func TestBank(t *testing.T) {
	layout, err := pad.Builtin(pad.LayoutITG)
	require.NoError(t, err)
	tun := tunables(func(t *config.Tunables) { t.HMAWindowSize = 1 })

	_, err = NewBank(layout, []float32{1, 2}, tun)
	assert.ErrorIs(t, err, pad.ErrLayoutMismatch)

	b, err := NewBank(layout, []float32{500, 500, 500, 500, 500, 500, 500}, tun)
	require.NoError(t, err)
	assert.Equal(t, 7, b.Len())
	assert.IsType(t, &DataFilter{}, b.Filter(0))

	b.Update(2, 700, tun)
	assert.Equal(t, []bool{false, false, true, false, false, false, false}, b.PressedStates(nil))
	assert.Equal(t, float32(200), b.Value(2))
	assert.Equal(t, float32(500), b.Baseline(2))

	ehma := tunables(func(t *config.Tunables) { t.FilterType = config.FilterEHMA })
	b, err = NewBank(layout, []float32{500, 500, 500, 500, 500, 500, 500}, ehma)
	require.NoError(t, err)
	assert.IsType(t, &NormalizedFilter{}, b.Filter(0))
}

func TestDataFilter_ConcurrentRead(t *testing.T) {
	tun := tunables(nil)
	f := NewDataFilter(600, tun)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			_ = f.Pressed()
			_ = f.Value()
		}
	}()
	for i := 0; i < 10000; i++ {
		f.Update(int16(600+i%500), tun)
	}
	wg.Wait()
}
