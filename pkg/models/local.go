package models

import (
	"fmt"
	"math"
)

// Model is a local forecasting model. Implementations are stateless: each
// call receives the full observed series.
type Model interface {
	// Name returns the model identifier used as the result column name.
	Name() string

	// Forecast produces h point forecasts from the observed values.
	Forecast(values []float64, h int) ([]float64, error)

	// Fitted returns in-sample one-step-ahead predictions aligned with
	// values. Positions where the model is undefined hold NaN.
	Fitted(values []float64) []float64
}

// NaiveModel repeats the last observed value.
type NaiveModel struct{}

func (m *NaiveModel) Name() string { return NameNaive }

func (m *NaiveModel) Forecast(values []float64, h int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("naive: series is empty")
	}
	return repeat(values[len(values)-1], h), nil
}

func (m *NaiveModel) Fitted(values []float64) []float64 {
	fitted := nans(len(values))
	for i := 1; i < len(values); i++ {
		fitted[i] = values[i-1]
	}
	return fitted
}

// SeasonalNaiveModel repeats the value observed one season earlier.
type SeasonalNaiveModel struct {
	SeasonLength int
}

func (m *SeasonalNaiveModel) Name() string { return NameSeasonalNaive }

func (m *SeasonalNaiveModel) Forecast(values []float64, h int) ([]float64, error) {
	if len(values) < m.SeasonLength {
		return nil, fmt.Errorf("seasonal_naive: need at least %d observations, have %d", m.SeasonLength, len(values))
	}
	season := values[len(values)-m.SeasonLength:]
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		out[i] = season[i%m.SeasonLength]
	}
	return out, nil
}

func (m *SeasonalNaiveModel) Fitted(values []float64) []float64 {
	fitted := nans(len(values))
	for i := m.SeasonLength; i < len(values); i++ {
		fitted[i] = values[i-m.SeasonLength]
	}
	return fitted
}

// HistoricAverageModel forecasts the mean of all observed values.
type HistoricAverageModel struct{}

func (m *HistoricAverageModel) Name() string { return NameHistoricAverage }

func (m *HistoricAverageModel) Forecast(values []float64, h int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("historic_average: series is empty")
	}
	return repeat(mean(values), h), nil
}

func (m *HistoricAverageModel) Fitted(values []float64) []float64 {
	fitted := nans(len(values))
	sum := 0.0
	for i, v := range values {
		if i > 0 {
			fitted[i] = sum / float64(i)
		}
		sum += v
	}
	return fitted
}

// WindowAverageModel forecasts the mean of the last WindowSize values.
type WindowAverageModel struct {
	WindowSize int
}

func (m *WindowAverageModel) Name() string { return NameWindowAverage }

func (m *WindowAverageModel) Forecast(values []float64, h int) ([]float64, error) {
	if len(values) < m.WindowSize {
		return nil, fmt.Errorf("window_average: need at least %d observations, have %d", m.WindowSize, len(values))
	}
	return repeat(mean(values[len(values)-m.WindowSize:]), h), nil
}

func (m *WindowAverageModel) Fitted(values []float64) []float64 {
	fitted := nans(len(values))
	for i := m.WindowSize; i < len(values); i++ {
		fitted[i] = mean(values[i-m.WindowSize : i])
	}
	return fitted
}

// EWMAModel forecasts an exponential moving average with α = 2/(span+1).
type EWMAModel struct {
	Span int
}

func (m *EWMAModel) Name() string { return NameEWMA }

func (m *EWMAModel) Forecast(values []float64, h int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("ewma: series is empty")
	}
	return repeat(ema(values, m.Span), h), nil
}

func (m *EWMAModel) Fitted(values []float64) []float64 {
	fitted := nans(len(values))
	for i := 1; i < len(values); i++ {
		fitted[i] = ema(values[:i], m.Span)
	}
	return fitted
}

// ema calculates the exponential moving average over the most recent n
// points. With fewer than n points it uses all available points.
//
// EMA formula: EMA_t = α * value_t + (1-α) * EMA_{t-1}, α = 2/(n+1).
func ema(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}

	start := 0
	if len(values) > n {
		start = len(values) - n
	}
	window := values[start:]

	alpha := 2.0 / float64(len(window)+1)
	out := window[0]
	for i := 1; i < len(window); i++ {
		out = alpha*window[i] + (1-alpha)*out
	}
	return out
}

// ResidualStd computes the standard deviation of in-sample residuals,
// ignoring NaN fitted positions. Returns 0 when fewer than two residuals
// exist.
func ResidualStd(values, fitted []float64) float64 {
	var resid []float64
	for i := range values {
		if i < len(fitted) && !math.IsNaN(fitted[i]) {
			resid = append(resid, values[i]-fitted[i])
		}
	}
	if len(resid) < 2 {
		return 0
	}
	mu := mean(resid)
	var ss float64
	for _, r := range resid {
		ss += (r - mu) * (r - mu)
	}
	return math.Sqrt(ss / float64(len(resid)-1))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func repeat(v float64, h int) []float64 {
	out := make([]float64, h)
	for i := range out {
		out[i] = v
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
