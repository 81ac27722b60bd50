// Package storage persists completed job results so callers can re-fetch
// them by job id. Two implementations exist: an in-memory store for
// single-instance deployments and a redis store for shared state across
// multiple forecastd instances.
package storage

import (
	"time"

	"github.com/tidecast/tidecast/pkg/dataset"
)

// Result kinds.
const (
	KindForecast        = "forecast"
	KindCrossValidation = "cross_validation"
)

// Result is one completed job: the produced rows plus enough metadata to
// judge staleness.
type Result struct {
	JobID       string        `json:"jobId"`
	Kind        string        `json:"kind"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Freq        string        `json:"freq"`
	Rows        []dataset.Row `json:"rows"`
}

// Store persists results keyed by job id.
type Store interface {
	Put(Result) error
	Get(jobID string) (Result, bool, error)
}
