package touch

// Hysteresis is the press/release state machine. A released sensor becomes pressed
// when the value rises above Press; a pressed sensor is released when the value
// drops below Release. Release must be below Press.
type Hysteresis struct {
	Press   float32
	Release float32

	pressed bool
}

// Step feeds one filtered value and returns the new state.
func (h *Hysteresis) Step(v float32) bool {
	if !h.pressed && v > h.Press {
		h.pressed = true
	} else if h.pressed && v < h.Release {
		h.pressed = false
	}
	return h.pressed
}

// Pressed returns the current state.
func (h *Hysteresis) Pressed() bool {
	return h.pressed
}
