package model

// State defines the lifecycle state of a registry entry.
type State int

const (
	// Unfitted is the state of a freshly constructed learner.
	Unfitted State = iota
	// Fitting marks a learner currently being trained.
	Fitting
	// Fitted is reached after a successful fit or load.
	Fitted
)

func (s State) String() string {
	switch s {
	case Unfitted:
		return "unfitted"
	case Fitting:
		return "fitting"
	case Fitted:
		return "fitted"
	}
	return "unknown"
}
