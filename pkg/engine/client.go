// Package engine provides the client for the tidecast forecasting engine.
// A Client is constructed per call by a backend, bound to a re-indexed
// dataset, a list of model specs, a sampling frequency and the cluster
// address, and submits forecast or cross-validation jobs over HTTP.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/tidecast/tidecast/pkg/dataset"
	"github.com/tidecast/tidecast/pkg/models"
)

// Job endpoints served by the cluster head.
const (
	ForecastPath        = "/v1/forecast"
	CrossValidationPath = "/v1/cross_validation"
)

// Request is the JSON body of a job submission.
type Request struct {
	JobID   string          `json:"job_id"`
	Freq    string          `json:"freq"`
	Series  []SeriesPayload `json:"series"`
	Models  []models.Spec   `json:"models"`
	Options Options         `json:"options"`
}

// SeriesPayload carries one re-indexed series over the wire.
type SeriesPayload struct {
	ID   string        `json:"id"`
	Rows []dataset.Row `json:"rows"`
}

// Response is the JSON body of a completed job.
type Response struct {
	JobID string        `json:"job_id"`
	Rows  []dataset.Row `json:"rows"`
	Error string        `json:"error,omitempty"`
}

// Client submits forecasting jobs to a cluster head. It is safe for
// concurrent use, though backends construct one per call.
type Client struct {
	addr       string
	indexed    *dataset.IndexedFrame
	specs      []models.Spec
	freq       dataset.Frequency
	httpClient *http.Client
	maxRetries uint64
}

// New creates a client bound to the given dataset, specs, frequency and
// cluster address. No connection is made until a job is submitted. A
// default timeout of 120 seconds covers model fitting on large datasets.
func New(x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, addr string) *Client {
	return &Client{
		addr:       addr,
		indexed:    x,
		specs:      specs,
		freq:       freq,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 3,
	}
}

// NewWithTimeout creates a client with a custom request timeout.
func NewWithTimeout(x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, addr string, timeout time.Duration) *Client {
	c := New(x, specs, freq, addr)
	c.httpClient.Timeout = timeout
	return c
}

// Forecast submits a forecast job for the dataset, specs and frequency the
// client was constructed with.
func (c *Client) Forecast(ctx context.Context, opts Options) (*dataset.Frame, error) {
	return c.submit(ctx, ForecastPath, c.indexed, c.specs, c.freq, opts)
}

// CrossValidation submits a cross-validation job. The dataset, specs and
// frequency are taken from the arguments; callers conventionally re-pass
// the values the client was constructed with.
func (c *Client) CrossValidation(ctx context.Context, x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, opts Options) (*dataset.Frame, error) {
	return c.submit(ctx, CrossValidationPath, x, specs, freq, opts)
}

func (c *Client) submit(ctx context.Context, path string, x *dataset.IndexedFrame, specs []models.Spec, freq dataset.Frequency, opts Options) (*dataset.Frame, error) {
	u, err := url.Parse(c.addr)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster address: %w", err)
	}
	u.Path = path

	req := Request{
		JobID:   uuid.NewString(),
		Freq:    string(freq),
		Models:  specs,
		Options: opts,
	}
	if x != nil {
		req.Series = make([]SeriesPayload, 0, len(x.Series))
		for _, s := range x.Series {
			req.Series = append(req.Series, SeriesPayload{ID: s.ID, Rows: s.Rows})
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode job request: %w", err)
	}

	var resp Response
	operation := func() error {
		return c.post(ctx, u.String(), body, &resp)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("engine: %s", resp.Error)
	}
	return &dataset.Frame{Rows: resp.Rows}, nil
}

// post performs one submission attempt. Connection errors and 5xx
// responses are retryable; anything else is permanent.
func (c *Client) post(ctx context.Context, u string, body []byte, out *Response) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("engine: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return backoff.Permanent(fmt.Errorf("engine: %s", apiErr.Error))
		}
		return backoff.Permanent(fmt.Errorf("engine: unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode job response: %w", err))
	}
	return nil
}
