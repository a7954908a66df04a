package valuation

// Phase is the lifecycle stage of the current valuation attempt.
type Phase int

const (
	// Collecting is the initial phase: no request in flight, no price held.
	Collecting Phase = iota
	// Requesting means a prediction call is outstanding.
	Requesting
	// Revealed means a valid price is held and shown.
	Revealed
	// Failed means the attempt ended with an error descriptor.
	Failed
)

var phaseNames = [...]string{"collecting", "requesting", "revealed", "failed"}

// String returns the lower-case phase name.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether the phase ends an attempt.
func (p Phase) Terminal() bool {
	return p == Revealed || p == Failed
}
