package fibonacci

// ProgressUpdate carries the progress of one calculator to the display layer.
type ProgressUpdate struct {
	// CalculatorIndex identifies the calculator when several run concurrently.
	CalculatorIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback core calculators use to report progress
// without knowing how it is consumed.
type ProgressReporter func(progress float64)

// progressStride is the number of loop iterations between two progress
// reports (and cancellation checks) in the long-running variants.
const progressStride = 1 << 10
