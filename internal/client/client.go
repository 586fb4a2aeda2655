// Package client talks to the patients REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patientor/internal/model"
	"github.com/jwalitptl/patientor/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/patientor/pkg/errors"
	"github.com/jwalitptl/patientor/pkg/metrics"
)

// UnrecognizedError is the message used when a failed response carries no
// error text of its own.
const UnrecognizedError = "Unrecognized API error"

// Endpoint labels used in metrics and logs.
const (
	EndpointPing       = "ping"
	EndpointPatients   = "patients"
	EndpointPatient    = "patient"
	EndpointEntries    = "entries"
	EndpointDiagnoses  = "diagnoses"
	statusTransportErr = "error"
	statusBreakerOpen  = "open"
)

// ErrMalformedResponse is returned when a call succeeded on the API but its
// response body could not be decoded.
var ErrMalformedResponse = errors.New("malformed api response")

// APIError is a non-2xx response from the API. Client methods return it
// wrapped in an upstream AppError.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// MessageOf returns the text to show the user for err: the API's own error
// message when err is an APIError, UnrecognizedError otherwise.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return UnrecognizedError
}

type errorBody struct {
	Error string `json:"error"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxFailures consecutive transport failures stop calls for Cooldown.
	MaxFailures int
	Cooldown    time.Duration
}

// Client is the patients API client. Requests are never retried.
type Client struct {
	http    *resty.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func New(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "patients-api",
		MaxFailures: cfg.MaxFailures,
		Cooldown:    cfg.Cooldown,
	})

	return &Client{http: httpClient, breaker: breaker, metrics: m}
}

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, EndpointPing, http.MethodGet, "/ping", nil, nil)
}

// ListPatients returns the patient summaries.
func (c *Client) ListPatients(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := c.do(ctx, EndpointPatients, http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// GetPatient returns the full record of one patient, entries included.
func (c *Client) GetPatient(ctx context.Context, id string) (model.Patient, error) {
	var p model.Patient
	err := c.do(ctx, EndpointPatient, http.MethodGet, "/patients/"+url.PathEscape(id), nil, &p)
	return p, err
}

// AddEntry posts an id-less entry and returns the entry as created by the API.
// ErrMalformedResponse means the entry was stored but cannot be read back.
func (c *Client) AddEntry(ctx context.Context, patientID string, entry model.Entry) (model.Entry, error) {
	var raw json.RawMessage
	if err := c.do(ctx, EndpointEntries, http.MethodPost, "/patients/"+url.PathEscape(patientID)+"/entries", entry, &raw); err != nil {
		return nil, err
	}
	created, err := model.UnmarshalEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: created entry: %v", ErrMalformedResponse, err)
	}
	return created, nil
}

// ListDiagnoses returns every known diagnosis.
func (c *Client) ListDiagnoses(ctx context.Context) ([]model.Diagnosis, error) {
	var diagnoses []model.Diagnosis
	if err := c.do(ctx, EndpointDiagnoses, http.MethodGet, "/diagnoses", nil, &diagnoses); err != nil {
		return nil, err
	}
	return diagnoses, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, result any) error {
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	// API error responses count as successes; caller cancellations count
	// as nothing.
	var resp *resty.Response
	var err error
	if bErr := c.breaker.Execute(func() error {
		resp, err = req.Execute(method, path)
		if err != nil && ctx.Err() != nil {
			return circuitbreaker.Ignore(err)
		}
		return err
	}); errors.Is(bErr, circuitbreaker.ErrOpen) {
		c.observeStatus(endpoint, statusBreakerOpen, start)
		log.Warn().Str("endpoint", endpoint).Msg("Patients API circuit open, call skipped")
		return apperrors.NewUnavailable(fmt.Errorf("%s %s: %w", method, path, bErr))
	}
	c.observe(endpoint, resp, err, start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Error().Err(err).
			Str("endpoint", endpoint).
			Str("method", method).
			Str("path", path).
			Msg("Patients API call failed")
		return apperrors.NewUnavailable(fmt.Errorf("%s %s: %w", method, path, err))
	}

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: UnrecognizedError}
		if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
			apiErr.Message = eb.Error
		}
		log.Warn().
			Str("endpoint", endpoint).
			Int("status_code", apiErr.StatusCode).
			Str("error", apiErr.Message).
			Msg("Patients API returned error")
		return apperrors.NewUpstream(apiErr.Message, apiErr)
	}

	return nil
}

func (c *Client) observe(endpoint string, resp *resty.Response, err error, start time.Time) {
	status := statusTransportErr
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	c.observeStatus(endpoint, status, start)
}

func (c *Client) observeStatus(endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
