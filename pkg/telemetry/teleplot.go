package telemetry

import (
	"bufio"
	"fmt"
	"io"
)

// Teleplot writes frames in the teleplot text format, one variable per line.
type Teleplot struct {
	w *bufio.Writer
}

// NewTeleplot creates a teleplot sink writing to w.
func NewTeleplot(w io.Writer) *Teleplot {
	return &Teleplot{w: bufio.NewWriter(w)}
}

// Write renders f and flushes it.
func (t *Teleplot) Write(f *Frame) error {
	ts := f.Time.UnixMilli()

	if f.RateValid {
		fmt.Fprintf(t.w, ">r:%.3f\r\n", f.SampleRate)
	}
	fmt.Fprintf(t.w, ">b:%d:- %s -|t\r\n", ts, f.Buttons.Format(f.Order))
	for i, v := range f.Values {
		fmt.Fprintf(t.w, ">t%d,s:%d:%.3f\r\n", i, ts, v)
	}
	fmt.Fprintf(t.w, ">cur,sum:%d:%f\r\n", ts, f.CurSum)
	fmt.Fprintf(t.w, ">base,sum:%d:%f\r\n", ts, f.BaseSum)

	if f.SummaryValid {
		s := f.Summary
		fmt.Fprintf(t.w, ">buf_sensor:%d\r\n", f.SummarySensor)
		fmt.Fprintf(t.w, ">min,d:%d\r\n", s.Min)
		fmt.Fprintf(t.w, ">max,d:%d\r\n", s.Max)
		fmt.Fprintf(t.w, ">mean,d:%.3f\r\n", s.Mean)
		fmt.Fprintf(t.w, ">buf_count:%d\r\n", s.Count)
		fmt.Fprintf(t.w, ">buf_sum:%d\r\n", s.Sum)
	}

	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("teleplot: %w", err)
	}
	return nil
}
