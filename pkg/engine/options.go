package engine

// Options enumerates the forecasting options the engine recognizes.
// Backends forward it verbatim without interpreting any field.
type Options struct {
	// Horizon is the number of future steps to forecast.
	Horizon int `json:"horizon"`

	// Level lists confidence levels (e.g. 80, 95) for prediction
	// intervals. Empty means point forecasts only.
	Level []int `json:"level,omitempty"`

	// Fitted requests in-sample fitted values alongside the forecast.
	Fitted bool `json:"fitted,omitempty"`

	// Windows is the number of cross-validation windows.
	Windows int `json:"windows,omitempty"`

	// StepSize is the distance between cross-validation cutoffs.
	// Defaults to Horizon when zero.
	StepSize int `json:"step_size,omitempty"`

	// Refit controls whether models are refit on every window.
	Refit bool `json:"refit,omitempty"`
}
