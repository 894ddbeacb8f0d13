package filter

import "github.com/chewxy/math32"

// EMA is an exponential moving average (first order IIR filter):
// value = alpha*next + (1-alpha)*value.
type EMA struct {
	alpha float32
	value float32
}

// NewEMA creates an EMA starting at zero.
func NewEMA(alpha float32) *EMA {
	return &EMA{alpha: alpha}
}

// SetAlpha changes the coefficient without touching the current value.
func (e *EMA) SetAlpha(alpha float32) {
	e.alpha = alpha
}

// Alpha returns the current coefficient.
func (e *EMA) Alpha() float32 {
	return e.alpha
}

// Value returns the current filtered value.
func (e *EMA) Value() float32 {
	return e.value
}

// Update feeds next into the filter and returns the new value.
func (e *EMA) Update(next float32) float32 {
	e.value = e.alpha*next + (1-e.alpha)*e.value
	return e.value
}

// EHMA is the exponential flavour of the Hull moving average. It combines EMAs with
// coefficients alpha, alpha/2 and sqrt(alpha) the same way the HMA combines WMAs:
// the alpha EMA plays the short window, the alpha/2 EMA the long one, giving
// smooth(sqrt(alpha), 2*EMA(alpha) - EMA(alpha/2)).
//
// Older pad firmware computes 2*EMA(alpha/2) - EMA(alpha) instead. That form
// extrapolates the slow average and lags a step rather than leading it, so
// outputs differ from that firmware for the same alpha.
type EHMA struct {
	fast   EMA
	slow   EMA
	smooth EMA
}

// NewEHMA creates an EHMA with the given base coefficient.
func NewEHMA(alpha float32) *EHMA {
	e := &EHMA{}
	e.SetAlpha(alpha)
	return e
}

// SetAlpha swaps all three coefficients. Filter state is kept.
func (e *EHMA) SetAlpha(alpha float32) {
	e.fast.SetAlpha(alpha)
	e.slow.SetAlpha(alpha / 2)
	e.smooth.SetAlpha(math32.Sqrt(alpha))
}

// Alpha returns the base coefficient.
func (e *EHMA) Alpha() float32 {
	return e.fast.Alpha()
}

// Value returns the current output without feeding a new sample.
func (e *EHMA) Value() float32 {
	return e.smooth.Value()
}

// Update feeds next into the filter and returns the smoothed value.
func (e *EHMA) Update(next float32) float32 {
	raw := 2*e.fast.Update(next) - e.slow.Update(next)
	return e.smooth.Update(raw)
}
