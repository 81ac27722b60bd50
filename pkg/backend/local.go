package backend

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/tidecast/tidecast/pkg/dataset"
	"github.com/tidecast/tidecast/pkg/engine"
	"github.com/tidecast/tidecast/pkg/models"
)

// LocalBackend executes forecasting in-process: one task per series on a
// bounded worker pool. It implements the same Backend contract as
// ClusterBackend and doubles as the execution engine inside forecastd.
type LocalBackend struct {
	concurrency int
}

// NewLocalBackend creates a local backend running at most concurrency
// series tasks in parallel. Non-positive concurrency defaults to the
// number of CPUs.
func NewLocalBackend(concurrency int) *LocalBackend {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &LocalBackend{concurrency: concurrency}
}

// Forecast fits every spec on every series and returns one row per future
// step per series, with one column per model plus interval bounds for each
// requested level.
func (b *LocalBackend) Forecast(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error) {
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive")
	}
	if err := freq.Validate(); err != nil {
		return nil, err
	}

	indexed, err := df.IndexBy(dataset.IDColumn)
	if err != nil {
		return nil, err
	}

	return b.run(ctx, indexed, func(s dataset.Series) ([]dataset.Row, error) {
		return forecastSeries(s, specs, freq, opts)
	})
}

// CrossValidation evaluates every spec over rolling train/test windows and
// returns one row per evaluated fold point, carrying the cutoff timestamp
// and the actual value alongside each model's prediction.
func (b *LocalBackend) CrossValidation(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error) {
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive")
	}
	if err := freq.Validate(); err != nil {
		return nil, err
	}

	indexed, err := df.IndexBy(dataset.IDColumn)
	if err != nil {
		return nil, err
	}

	return b.run(ctx, indexed, func(s dataset.Series) ([]dataset.Row, error) {
		return crossValidateSeries(s, specs, opts)
	})
}

// run fans series tasks out on the pool and reassembles results in series
// order.
func (b *LocalBackend) run(ctx context.Context, indexed *dataset.IndexedFrame, task func(dataset.Series) ([]dataset.Row, error)) (*dataset.Frame, error) {
	pool, err := ants.NewPool(b.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]dataset.Row, len(indexed.Series))
	errs := make([]error, len(indexed.Series))

	var wg sync.WaitGroup
	for i, s := range indexed.Series {
		i, s := i, s
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			rows, err := task(s)
			if err != nil {
				errs[i] = fmt.Errorf("series %q: %w", s.ID, err)
				return
			}
			results[i] = rows
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit series %q: %w", s.ID, submitErr)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := &dataset.Frame{}
	for _, rows := range results {
		out.Rows = append(out.Rows, rows...)
	}
	return out, nil
}

func forecastSeries(s dataset.Series, specs []models.Spec, freq dataset.Frequency, opts engine.Options) ([]dataset.Row, error) {
	times, values, err := seriesPoints(s)
	if err != nil {
		return nil, err
	}

	future, err := freq.Times(times[len(times)-1], opts.Horizon)
	if err != nil {
		return nil, err
	}

	rows := make([]dataset.Row, opts.Horizon)
	for i := range rows {
		rows[i] = dataset.Row{
			dataset.IDColumn:   s.ID,
			dataset.TimeColumn: future[i].UTC().Format(time.RFC3339),
		}
	}

	var fittedRows []dataset.Row
	if opts.Fitted {
		fittedRows = make([]dataset.Row, len(values))
		for i := range fittedRows {
			fittedRows[i] = dataset.Row{
				dataset.IDColumn:    s.ID,
				dataset.TimeColumn:  times[i].UTC().Format(time.RFC3339),
				dataset.ValueColumn: values[i],
			}
		}
	}

	for _, spec := range specs {
		model, err := models.Build(spec)
		if err != nil {
			return nil, err
		}

		points, err := model.Forecast(values, opts.Horizon)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i][model.Name()] = points[i]
		}

		var fitted []float64
		if len(opts.Level) > 0 || opts.Fitted {
			fitted = model.Fitted(values)
		}

		if len(opts.Level) > 0 {
			sigma := models.ResidualStd(values, fitted)
			for _, level := range opts.Level {
				z := zScore(level)
				for i := range rows {
					width := z * sigma * math.Sqrt(float64(i+1))
					rows[i][fmt.Sprintf("%s-lo-%d", model.Name(), level)] = points[i] - width
					rows[i][fmt.Sprintf("%s-hi-%d", model.Name(), level)] = points[i] + width
				}
			}
		}

		if opts.Fitted {
			for i, v := range fitted {
				if !math.IsNaN(v) {
					fittedRows[i][model.Name()+"-fitted"] = v
				}
			}
		}
	}

	if opts.Fitted {
		rows = append(fittedRows, rows...)
	}
	return rows, nil
}

func crossValidateSeries(s dataset.Series, specs []models.Spec, opts engine.Options) ([]dataset.Row, error) {
	times, values, err := seriesPoints(s)
	if err != nil {
		return nil, err
	}

	h := opts.Horizon
	windows := opts.Windows
	if windows <= 0 {
		windows = 1
	}
	step := opts.StepSize
	if step <= 0 {
		step = h
	}

	// The earliest cutoff still needs at least one training point.
	need := h + (windows-1)*step + 1
	if len(values) < need {
		return nil, fmt.Errorf("need at least %d observations for %d windows of horizon %d, have %d", need, windows, h, len(values))
	}

	var rows []dataset.Row
	for k := 0; k < windows; k++ {
		cut := len(values) - h - (windows-1-k)*step
		train := values[:cut]
		cutoff := times[cut-1].UTC().Format(time.RFC3339)

		fold := make([]dataset.Row, h)
		for i := range fold {
			fold[i] = dataset.Row{
				dataset.IDColumn:    s.ID,
				dataset.TimeColumn:  times[cut+i].UTC().Format(time.RFC3339),
				"cutoff":            cutoff,
				dataset.ValueColumn: values[cut+i],
			}
		}

		for _, spec := range specs {
			model, err := models.Build(spec)
			if err != nil {
				return nil, err
			}
			points, err := model.Forecast(train, h)
			if err != nil {
				return nil, err
			}
			for i := range fold {
				fold[i][model.Name()] = points[i]
			}

			if len(opts.Level) > 0 {
				sigma := models.ResidualStd(train, model.Fitted(train))
				for _, level := range opts.Level {
					z := zScore(level)
					for i := range fold {
						width := z * sigma * math.Sqrt(float64(i+1))
						fold[i][fmt.Sprintf("%s-lo-%d", model.Name(), level)] = points[i] - width
						fold[i][fmt.Sprintf("%s-hi-%d", model.Name(), level)] = points[i] + width
					}
				}
			}
		}

		rows = append(rows, fold...)
	}
	return rows, nil
}

// seriesPoints extracts aligned (timestamp, value) pairs, skipping rows
// missing either cell.
func seriesPoints(s dataset.Series) ([]time.Time, []float64, error) {
	times := make([]time.Time, 0, len(s.Rows))
	values := make([]float64, 0, len(s.Rows))
	for _, row := range s.Rows {
		rawVal, ok := row[dataset.ValueColumn]
		if !ok {
			continue
		}
		v, ok := dataset.ToFloat64(rawVal)
		if !ok {
			continue
		}
		rawTS, ok := row[dataset.TimeColumn]
		if !ok {
			continue
		}
		t, err := dataset.ParseTime(rawTS)
		if err != nil {
			continue
		}
		times = append(times, t)
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("no rows with parseable %q and %q", dataset.TimeColumn, dataset.ValueColumn)
	}
	return times, values, nil
}

// zScore returns the two-sided normal quantile for a confidence level in
// percent, e.g. 95 -> 1.96.
func zScore(level int) float64 {
	p := float64(level) / 100
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		p = 0.999999
	}
	return math.Sqrt2 * math.Erfinv(p)
}
