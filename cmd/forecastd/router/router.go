// Package router configures HTTP routes for the forecastd API.
//
// Routes configured:
//   - POST /v1/forecast          - Execute a forecast job
//   - POST /v1/cross_validation  - Execute a cross-validation job
//   - GET  /v1/jobs/{id}         - Retrieve a cached job result
//   - GET  /healthz              - Health check endpoint
//   - GET  /metrics              - Prometheus metrics endpoint
//
// Job endpoints execute synchronously and return the result rows in the
// response body. Completed results are also cached in the result store and
// can be re-fetched by job id; results older than the stale threshold
// include an X-Tidecast-Stale header.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidecast/tidecast/pkg/engine"
	"github.com/tidecast/tidecast/pkg/httpx"
	"github.com/tidecast/tidecast/pkg/storage"
)

// Executor runs one job of the given kind and returns its response.
type Executor interface {
	Run(ctx context.Context, kind string, req engine.Request) (engine.Response, error)
}

// SetupRoutes configures HTTP endpoints for forecastd.
func SetupRoutes(exec Executor, store storage.Store, staleAfter time.Duration, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST "+engine.ForecastPath, handleSubmit(exec, storage.KindForecast, logger))
	mux.HandleFunc("POST "+engine.CrossValidationPath, handleSubmit(exec, storage.KindCrossValidation, logger))
	mux.HandleFunc("GET /v1/jobs/{id}", handleGetResult(store, staleAfter, logger))

	return mux
}

// handleSubmit returns a handler that decodes a job request, executes it,
// and writes the response rows.
func handleSubmit(exec Executor, kind string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid job request body")
			return
		}

		resp, err := exec.Run(r.Context(), kind, req)
		if err != nil {
			logger.Error("job failed", "kind", kind, "job_id", req.JobID, "error", err)
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

// handleGetResult returns a handler for GET /v1/jobs/{id}.
func handleGetResult(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.PathValue("id")
		if jobID == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "job id required")
			return
		}

		result, found, err := store.Get(jobID)
		if err != nil {
			logger.Error("failed to get result", "job_id", jobID, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("result not found for job %q", jobID))
			return
		}

		if time.Since(result.GeneratedAt) > staleAfter {
			w.Header().Set("X-Tidecast-Stale", "true")
		}

		httpx.WriteJSON(w, http.StatusOK, result)
	}
}
