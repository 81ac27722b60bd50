package backend

import (
	"context"

	"github.com/tidecast/tidecast/pkg/dataset"
	"github.com/tidecast/tidecast/pkg/engine"
	"github.com/tidecast/tidecast/pkg/models"
)

// ClusterBackend binds forecasting calls to a remote execution cluster.
// It holds only the cluster address captured at construction; each call
// re-indexes the dataset by series identifier, constructs an engine bound
// to (dataset, specs, frequency, address), and delegates. It performs no
// validation, retries or error translation of its own: every failure
// propagates unmodified from the engine.
//
// ClusterBackend is stateless between calls and safe for concurrent use.
type ClusterBackend struct {
	addr string

	// newEngine builds the engine for one call. Replaceable in tests.
	newEngine func(x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, addr string) Engine
}

// NewClusterBackend creates a backend bound to the given cluster address.
// The address is stored as-is; it is not validated or dialed until the
// first call.
func NewClusterBackend(addr string) *ClusterBackend {
	return &ClusterBackend{
		addr: addr,
		newEngine: func(x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, addr string) Engine {
			return engine.New(x, specs, freq, addr)
		},
	}
}

// Forecast re-indexes df by the series column, constructs an engine bound
// to the stored cluster address, and invokes its forecast operation with
// opts forwarded verbatim.
func (b *ClusterBackend) Forecast(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error) {
	indexed, err := df.IndexBy(dataset.IDColumn)
	if err != nil {
		return nil, err
	}
	eng := b.newEngine(indexed, specs, freq, b.addr)
	return eng.Forecast(ctx, opts)
}

// CrossValidation constructs the engine exactly as Forecast does, then
// invokes its cross-validation operation, re-passing the indexed dataset,
// specs and frequency positionally alongside opts. The engine receives
// the same values it was constructed with.
func (b *ClusterBackend) CrossValidation(ctx context.Context, df *dataset.Frame, specs []models.Spec, freq dataset.Frequency, opts engine.Options) (*dataset.Frame, error) {
	indexed, err := df.IndexBy(dataset.IDColumn)
	if err != nil {
		return nil, err
	}
	eng := b.newEngine(indexed, specs, freq, b.addr)
	return eng.CrossValidation(ctx, indexed, specs, freq, opts)
}
