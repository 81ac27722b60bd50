// Package models defines the model configurations tidecast backends accept
// and the local implementations used for in-process execution.
//
// A Spec is an opaque, serializable configuration: backends forward specs
// verbatim to the forecasting engine without inspecting them. The registry
// in this package resolves spec names to local Model implementations when
// execution happens in-process.
package models

import "fmt"

// Spec is an opaque model configuration understood by the forecasting
// engine. Params are model-specific and travel verbatim over the wire.
type Spec struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Recognized model family names.
const (
	NameNaive           = "naive"
	NameSeasonalNaive   = "seasonal_naive"
	NameHistoricAverage = "historic_average"
	NameWindowAverage   = "window_average"
	NameEWMA            = "ewma"
)

// Naive repeats the last observed value.
func Naive() Spec {
	return Spec{Name: NameNaive}
}

// SeasonalNaive repeats the value observed one season earlier.
func SeasonalNaive(seasonLength int) Spec {
	return Spec{Name: NameSeasonalNaive, Params: map[string]any{"season_length": seasonLength}}
}

// HistoricAverage forecasts the mean of all observed values.
func HistoricAverage() Spec {
	return Spec{Name: NameHistoricAverage}
}

// WindowAverage forecasts the mean of the last windowSize values.
func WindowAverage(windowSize int) Spec {
	return Spec{Name: NameWindowAverage, Params: map[string]any{"window_size": windowSize}}
}

// EWMA forecasts an exponential moving average with the given span.
func EWMA(span int) Spec {
	return Spec{Name: NameEWMA, Params: map[string]any{"span": span}}
}

// Build resolves a spec to a local Model implementation. Unknown names or
// invalid parameters are errors.
func Build(spec Spec) (Model, error) {
	switch spec.Name {
	case NameNaive:
		return &NaiveModel{}, nil
	case NameSeasonalNaive:
		season, err := intParam(spec, "season_length")
		if err != nil {
			return nil, err
		}
		if season <= 0 {
			return nil, fmt.Errorf("model %q: season_length must be positive", spec.Name)
		}
		return &SeasonalNaiveModel{SeasonLength: season}, nil
	case NameHistoricAverage:
		return &HistoricAverageModel{}, nil
	case NameWindowAverage:
		window, err := intParam(spec, "window_size")
		if err != nil {
			return nil, err
		}
		if window <= 0 {
			return nil, fmt.Errorf("model %q: window_size must be positive", spec.Name)
		}
		return &WindowAverageModel{WindowSize: window}, nil
	case NameEWMA:
		span, err := intParam(spec, "span")
		if err != nil {
			return nil, err
		}
		if span <= 0 {
			return nil, fmt.Errorf("model %q: span must be positive", spec.Name)
		}
		return &EWMAModel{Span: span}, nil
	default:
		return nil, fmt.Errorf("unknown model %q", spec.Name)
	}
}

// intParam extracts an integer parameter, tolerating the float64 values
// JSON decoding produces.
func intParam(spec Spec, key string) (int, error) {
	raw, ok := spec.Params[key]
	if !ok {
		return 0, fmt.Errorf("model %q: missing parameter %q", spec.Name, key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("model %q: parameter %q has unsupported type %T", spec.Name, key, raw)
	}
}
