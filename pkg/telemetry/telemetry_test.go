package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/capdance/pkg/buttons"
	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing_Size(t *testing.T) {
	_, err := NewRing(0)
	assert.Error(t, err)
	_, err = NewRing(100)
	assert.Error(t, err)
	r, err := NewRing(DefaultRingSize)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Available())
}

func TestRing_Summarize(t *testing.T) {
	r, err := NewRing(8)
	require.NoError(t, err)

	_, ok := r.Summarize()
	assert.False(t, ok)

	for _, v := range []int16{5, -3, 10, 0} {
		assert.True(t, r.Push(v))
	}
	s, ok := r.Summarize()
	require.True(t, ok)
	assert.Equal(t, Summary{Min: -3, Max: 10, Mean: 3, Count: 4, Sum: 12}, s)

	_, ok = r.Summarize()
	assert.False(t, ok, "summarize consumes")
}

func TestRing_FullDrops(t *testing.T) {
	r, err := NewRing(4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.True(t, r.Push(int16(i)))
	}
	assert.False(t, r.Push(99))
	assert.Equal(t, uint64(1), r.Dropped())

	s, ok := r.Summarize()
	require.True(t, ok)
	assert.Equal(t, int16(3), s.Max)

	// wraps around
	for i := 0; i < 4; i++ {
		require.True(t, r.Push(int16(10+i)))
	}
	s, ok = r.Summarize()
	require.True(t, ok)
	assert.Equal(t, int16(10), s.Min)
	assert.Equal(t, int64(46), s.Sum)
}

func TestRing_Concurrent(t *testing.T) {
	r, err := NewRing(64)
	require.NoError(t, err)

	const n = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.Push(1)
		}
	}()

	var total int64
	deadline := time.After(2 * time.Second)
	for {
		if s, ok := r.Summarize(); ok {
			assert.Equal(t, int64(s.Count), s.Sum, "every reading is 1")
			total += s.Sum
		}
		if total+int64(r.Dropped()) == n {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("consumed %d, dropped %d", total, r.Dropped())
		default:
		}
	}
	wg.Wait()
}

func testFrame() *Frame {
	var b buttons.Bitmap
	b[pad.Up] = true
	return &Frame{
		Time:          time.UnixMilli(1234),
		SampleRate:    2500,
		RateValid:     true,
		Buttons:       b,
		Order:         []pad.Button{pad.Left, pad.Down, pad.Up, pad.Right},
		Values:        []float32{1.5, -2},
		CurSum:        1000,
		BaseSum:       990,
		Summary:       Summary{Min: -1, Max: 4, Mean: 1.5, Count: 2, Sum: 3},
		SummarySensor: 3,
		SummaryValid:  true,
	}
}

func TestTeleplot_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTeleplot(&buf).Write(testFrame()))

	want := strings.Join([]string{
		">r:2500.000",
		">b:1234:- -- -- UU -- -|t",
		">t0,s:1234:1.500",
		">t1,s:1234:-2.000",
		">cur,sum:1234:1000.000000",
		">base,sum:1234:990.000000",
		">buf_sensor:3",
		">min,d:-1",
		">max,d:4",
		">mean,d:1.500",
		">buf_count:2",
		">buf_sum:3",
	}, "\r\n") + "\r\n"
	assert.Equal(t, want, buf.String())
}

func TestTeleplot_WithoutRate(t *testing.T) {
	var buf bytes.Buffer
	f := testFrame()
	f.RateValid = false
	f.SummaryValid = false
	require.NoError(t, NewTeleplot(&buf).Write(f))
	assert.NotContains(t, buf.String(), ">r:")
	assert.NotContains(t, buf.String(), ">min,d")
}

type recordSink struct {
	frames []Frame
	err    error
}

func (s *recordSink) Write(f *Frame) error {
	c := *f
	c.Values = append([]float32(nil), f.Values...)
	s.frames = append(s.frames, c)
	return s.err
}

func TestReporter_RateLimitAndSampleRate(t *testing.T) {
	tun := config.DefaultTunables()
	tun.TeleplotReportIntervalUS = 100 * 1000
	sink := &recordSink{}
	r := NewReporter(nil, sink)
	t0 := time.Unix(50, 0)

	fill := func(f *Frame) { f.Values = append(f.Values, 7) }

	sent, err := r.Tick(t0, &tun, 0, fill)
	require.NoError(t, err)
	assert.True(t, sent, "first tick reports")
	assert.False(t, sink.frames[0].RateValid)

	sent, _ = r.Tick(t0.Add(50*time.Millisecond), &tun, 100, fill)
	assert.False(t, sent, "inside the interval")

	sent, _ = r.Tick(t0.Add(100*time.Millisecond), &tun, 100, fill)
	assert.True(t, sent)
	assert.False(t, sink.frames[1].RateValid, "previous counter was zero")

	sent, _ = r.Tick(t0.Add(200*time.Millisecond), &tun, 600, fill)
	assert.True(t, sent)
	require.True(t, sink.frames[2].RateValid)
	assert.InDelta(t, 5000, sink.frames[2].SampleRate, 0.001)
	assert.Equal(t, []float32{7}, sink.frames[2].Values)
}

func TestReporter_SummaryAndErrors(t *testing.T) {
	ring, err := NewRing(16)
	require.NoError(t, err)
	ring.Push(3)
	ring.Push(5)

	bad := &recordSink{err: errors.New("port gone")}
	good := &recordSink{}
	r := NewReporter(ring, bad)
	r.AddSink(good)

	tun := config.DefaultTunables()
	sent, err := r.Tick(time.Unix(1, 0), &tun, 0, nil)
	assert.True(t, sent)
	assert.ErrorContains(t, err, "port gone")
	require.Len(t, good.frames, 1, "one failing sink does not starve the others")
	assert.True(t, good.frames[0].SummaryValid)
	assert.Equal(t, float32(4), good.frames[0].Summary.Mean)
}

type fakeToken struct {
	err   error
	delay time.Duration
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	if t.delay > d {
		time.Sleep(d)
		return false
	}
	time.Sleep(t.delay)
	return true
}
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	mqtt.Client
	mu           sync.Mutex
	topic        string
	payload      []byte
	published    int
	retained     bool
	disconnected bool
	err          error
	delay        time.Duration
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
	c.retained = retained
	c.payload = payload.([]byte)
	c.published++
	return &fakeToken{err: c.err, delay: c.delay}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) set(fn func(c *fakeClient)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

func TestMQTTSink_Write(t *testing.T) {
	client := &fakeClient{}
	sink := NewMQTTSink(client, "capdance/telemetry")
	defer sink.Close()

	require.NoError(t, sink.Write(testFrame()))
	require.Eventually(t, func() bool { return client.count() == 1 }, time.Second, time.Millisecond)

	client.set(func(c *fakeClient) {
		assert.Equal(t, "capdance/telemetry", c.topic)
		assert.False(t, c.retained)

		var got map[string]any
		require.NoError(t, json.Unmarshal(c.payload, &got))
		assert.Equal(t, []any{"up"}, got["pressed"])
		assert.Equal(t, []any{1.5, -2.0}, got["values"])
		assert.Equal(t, 2500.0, got["sample_rate"])
		assert.Equal(t, 3.0, got["summary"].(map[string]any)["sum"])
		assert.Equal(t, 3.0, got["summary_sensor"])
	})
}

func TestMQTTSink_PublishErrorReportedLater(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	sink := NewMQTTSink(client, "capdance/telemetry")
	defer sink.Close()

	require.NoError(t, sink.Write(testFrame()))
	require.Eventually(t, func() bool { return client.count() == 1 }, time.Second, time.Millisecond)

	var err error
	require.Eventually(t, func() bool {
		err = sink.Write(testFrame())
		return err != nil
	}, time.Second, time.Millisecond)
	assert.ErrorContains(t, err, "not connected")
}

func TestMQTTSink_SlowBrokerDoesNotBlockTick(t *testing.T) {
	client := &fakeClient{delay: time.Second}
	sink := NewMQTTSink(client, "capdance/telemetry")
	defer sink.Close()
	r := NewReporter(nil, sink)
	tun := config.DefaultTunables()

	now := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		start := time.Now()
		ok, err := r.Tick(now, &tun, 0, nil)
		elapsed := time.Since(start)

		require.True(t, ok)
		assert.NoError(t, err)
		assert.Less(t, elapsed, 10*time.Millisecond)
		now = now.Add(tun.TeleplotInterval())
	}
	assert.LessOrEqual(t, client.count(), 1, "publisher is still waiting on the first frame")
	assert.NotZero(t, sink.Dropped())
}

func TestMQTTSink_Close(t *testing.T) {
	client := &fakeClient{}
	sink := NewMQTTSink(client, "capdance/telemetry")

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	client.set(func(c *fakeClient) { assert.True(t, c.disconnected) })
}
