// Package backend defines the execution-backend capability shared by all
// tidecast backends and provides two implementations: ClusterBackend,
// which delegates to a remote forecasting engine, and LocalBackend, which
// executes models in-process on a worker pool.
//
// Backends are deliberately thin. They accept a dataset and a list of
// model specs, bind execution to one runtime, and return whatever tabular
// result the engine produces. Scheduling, partitioning and fault handling
// belong to the engine behind them.
package backend

import (
	"context"

	"github.com/tidecast/tidecast/pkg/dataset"
	"github.com/tidecast/tidecast/pkg/engine"
	"github.com/tidecast/tidecast/pkg/models"
)

// Backend is the uniform execution capability: produce forecasts, or
// produce temporal cross-validation folds, for a dataset and a list of
// model specs at a given sampling frequency. Options travel through to
// the engine verbatim.
type Backend interface {
	Forecast(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error)
	CrossValidation(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error)
}

// Engine is the forecasting-engine collaborator a ClusterBackend drives.
// One is constructed per call, bound to a dataset, specs, frequency and a
// cluster address.
type Engine interface {
	Forecast(ctx context.Context, opts engine.Options) (*dataset.Frame, error)
	CrossValidation(ctx context.Context, x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error)
}
