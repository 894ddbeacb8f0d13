package sensor

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBank logs every call and returns the pin as the raw reading.
type recordingBank struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (b *recordingBank) log(op string, s pad.SensorConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fmt.Sprintf("%s%d", op, s.Pin))
}

func (b *recordingBank) Configure(s pad.SensorConfig) error {
	b.log("c", s)
	return b.fail
}

func (b *recordingBank) Arm(s pad.SensorConfig) error {
	b.log("a", s)
	return nil
}

func (b *recordingBank) Read(s pad.SensorConfig) (uint16, error) {
	b.log("r", s)
	return Timeout - uint16(s.Pin), nil
}

func TestNewPoller(t *testing.T) {
	itg, err := pad.Builtin(pad.LayoutITG)
	require.NoError(t, err)
	p, err := NewPoller(itg, &recordingBank{})
	require.NoError(t, err)
	assert.IsType(t, &SequentialPoller{}, p)
	assert.Equal(t, 7, p.Len())

	itg8, err := pad.Builtin(pad.LayoutITG8)
	require.NoError(t, err)
	p, err = NewPoller(itg8, &recordingBank{})
	require.NoError(t, err)
	assert.IsType(t, &ParallelPoller{}, p)
	assert.Equal(t, 8, p.Len())
}

func TestSequentialPoller_ArmsBeforeEveryRead(t *testing.T) {
	layout, err := pad.Builtin(pad.LayoutITG)
	require.NoError(t, err)
	bank := &recordingBank{}
	p, err := NewPoller(layout, bank)
	require.NoError(t, err)

	require.NoError(t, p.Init())
	dst := make([]int16, p.Len())
	require.NoError(t, p.Poll(dst))

	assert.Equal(t, []string{
		"c7", "c9", "c8", "c6", "c5", "c4", "c3",
		"a7", "r7", "a9", "r9", "a8", "r8", "a6", "r6", "a5", "r5", "a4", "r4", "a3", "r3",
	}, bank.calls)
	assert.Equal(t, []int16{7, 9, 8, 6, 5, 4, 3}, dst)
}

func TestParallelPoller_ReadsByGroup(t *testing.T) {
	layout, err := pad.Builtin(pad.LayoutITG8)
	require.NoError(t, err)
	bank := &recordingBank{}
	p, err := NewPoller(layout, bank)
	require.NoError(t, err)

	require.NoError(t, p.Init())
	bank.calls = nil

	dst := make([]int16, p.Len())
	require.NoError(t, p.Poll(dst))

	// group 0 holds the even sensor indices, group 1 the odd ones; no re-arming
	assert.Equal(t, []string{"r14", "r13", "r11", "r8", "r15", "r12", "r10", "r9"}, bank.calls)
	assert.Equal(t, []int16{14, 15, 13, 12, 11, 10, 8, 9}, dst)
}

func TestPoller_Errors(t *testing.T) {
	layout, err := pad.Builtin(pad.LayoutITG)
	require.NoError(t, err)

	bank := &recordingBank{fail: errors.New("no such channel")}
	p, err := NewPoller(layout, bank)
	require.NoError(t, err)
	assert.ErrorContains(t, p.Init(), "configure sensor 0 (pin 7)")

	assert.ErrorIs(t, p.Poll(make([]int16, 3)), pad.ErrLayoutMismatch)
}

func TestPoller_StuckSensorBlocksRound(t *testing.T) {
	layout, err := pad.Builtin(pad.LayoutITG)
	require.NoError(t, err)
	m := NewMock(&config.MockConfig{Baseline: 600})
	p, err := NewPoller(layout, m)
	require.NoError(t, err)
	require.NoError(t, p.Init())

	m.Stall(8)
	done := make(chan error, 1)
	go func() {
		done <- p.Poll(make([]int16, p.Len()))
	}()

	select {
	case <-done:
		t.Fatal("round finished with a stuck sensor")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 0, m.Reads(6), "sensors after the stuck one wait too")

	m.Release(8)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("round still blocked")
	}
	assert.Equal(t, 1, m.Reads(6))
}
