package stats

// Decision selects how a window is turned into an active/inactive reading.
type Decision int

const (
	DecisionMedian Decision = iota // majority vote over the window
	DecisionMean                   // window mean against the threshold
	DecisionIIR                    // IIR value against the threshold
)

// Snapshot is the statistics of one sampling window for every sensor,
// indexed by sensor index.
type Snapshot struct {
	Seq      uint64
	BySensor []RunningStats
}

// Active applies the decision to sensor i. active is the previous state, used for hysteresis.
func (s *Snapshot) Active(i int, d Decision, active bool, hysteresis float32) bool {
	st := &s.BySensor[i]
	switch d {
	case DecisionMean:
		return st.MeanIsAboveThreshold(active, hysteresis)
	case DecisionIIR:
		return st.IIRIsAboveThreshold(active, hysteresis)
	default:
		return st.IsAboveThreshold()
	}
}
