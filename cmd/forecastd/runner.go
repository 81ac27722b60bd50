// Package main implements the forecastd service: the cluster head a
// ClusterBackend address points at. It executes forecast and
// cross-validation jobs through a local backend, caches completed results,
// and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tidecast/tidecast/cmd/forecastd/metrics"
	"github.com/tidecast/tidecast/pkg/backend"
	"github.com/tidecast/tidecast/pkg/dataset"
	"github.com/tidecast/tidecast/pkg/engine"
	"github.com/tidecast/tidecast/pkg/storage"
)

// Runner executes jobs through a backend and caches their results.
type Runner struct {
	backend backend.Backend
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(b backend.Backend, store storage.Store, m *metrics.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{backend: b, store: store, metrics: m, logger: logger}
}

// Run executes one job. A store failure does not fail the job: the result
// is still returned, the failure logged and counted.
func (r *Runner) Run(ctx context.Context, kind string, req engine.Request) (engine.Response, error) {
	start := time.Now()
	r.metrics.JobStarted()
	defer r.metrics.JobFinished()

	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	r.metrics.ObserveJobSeries(len(req.Series))

	df := frameFromRequest(req)
	freq := dataset.Frequency(req.Freq)

	var result *dataset.Frame
	var err error
	switch kind {
	case storage.KindForecast:
		result, err = r.backend.Forecast(ctx, df, req.Models, freq, req.Options)
	case storage.KindCrossValidation:
		result, err = r.backend.CrossValidation(ctx, df, req.Models, freq, req.Options)
	default:
		err = fmt.Errorf("unknown job kind %q", kind)
	}

	duration := time.Since(start)
	r.metrics.ObserveJobDuration(kind, duration.Seconds())

	if err != nil {
		r.metrics.RecordJob(kind, "error")
		return engine.Response{}, err
	}
	r.metrics.RecordJob(kind, "ok")

	r.logger.Info("job complete",
		"kind", kind,
		"job_id", req.JobID,
		"series", len(req.Series),
		"rows", len(result.Rows),
		"duration_ms", duration.Milliseconds(),
	)

	if putErr := r.store.Put(storage.Result{
		JobID:       req.JobID,
		Kind:        kind,
		GeneratedAt: time.Now(),
		Freq:        req.Freq,
		Rows:        result.Rows,
	}); putErr != nil {
		r.metrics.RecordStoreError()
		r.logger.Error("failed to store result", "job_id", req.JobID, "error", putErr)
	}

	return engine.Response{JobID: req.JobID, Rows: result.Rows}, nil
}

// frameFromRequest rebuilds a flat frame from the wire payload, restoring
// the series-identifier column the client promoted to the index.
func frameFromRequest(req engine.Request) *dataset.Frame {
	df := &dataset.Frame{}
	for _, s := range req.Series {
		for _, row := range s.Rows {
			clone := make(dataset.Row, len(row)+1)
			for k, v := range row {
				clone[k] = v
			}
			clone[dataset.IDColumn] = s.ID
			df.Rows = append(df.Rows, clone)
		}
	}
	return df
}
