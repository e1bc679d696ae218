package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"tally/internal/api"
	"tally/internal/config"
	"tally/internal/logging"
	"tally/internal/services"
)

const maxErrorBody = 64 * 1024

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs data entry requests against one server.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	logger  *slog.Logger
}

// New constructs a client for baseURL. A nil doer uses http.DefaultClient.
func New(baseURL, token string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    doer,
		logger:  logging.NewComponentLogger(logger, "apiclient"),
	}
}

// NewFromConfig constructs a client using the server section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return New(cfg.Server.BaseURL, cfg.Server.APIToken, &http.Client{Timeout: cfg.RequestTimeout()}, logger)
}

// Load fetches the stored entry.
func (c *Client) Load(ctx context.Context, pollingStationID int64, entryNumber int) (api.LoadResponse, error) {
	var out api.LoadResponse
	err := c.do(ctx, "load", http.MethodGet, api.DataEntryPath(pollingStationID, entryNumber), nil, &out)
	return out, err
}

// Save stores the entry and returns the server's validation results.
func (c *Client) Save(ctx context.Context, pollingStationID int64, entryNumber int, req api.SaveRequest) (api.SaveResponse, error) {
	var out api.SaveResponse
	err := c.do(ctx, "save", http.MethodPost, api.DataEntryPath(pollingStationID, entryNumber), req, &out)
	return out, err
}

// Delete discards the entry.
func (c *Client) Delete(ctx context.Context, pollingStationID int64, entryNumber int) error {
	return c.do(ctx, "delete", http.MethodDelete, api.DataEntryPath(pollingStationID, entryNumber), nil, nil)
}

// Finalise completes the entry.
func (c *Client) Finalise(ctx context.Context, pollingStationID int64, entryNumber int) error {
	return c.do(ctx, "finalise", http.MethodPost, api.FinalisePath(pollingStationID, entryNumber), nil, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrInvariant, "apiclient", operation, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "apiclient", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("api request", logging.String("method", method), logging.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "apiclient", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrMalformedResponse, "apiclient", operation, "decode response", err)
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	marker := services.ErrServer
	if resp.StatusCode == http.StatusNotFound {
		marker = services.ErrNotFound
	}
	message := fmt.Sprintf("server returned %d", resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload api.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(payload.Error))
		if payload.Reference != "" {
			message = fmt.Sprintf("%s (%s)", message, payload.Reference)
		}
	}
	return &StatusError{Code: resp.StatusCode, Fatal: payload.Fatal, err: services.Wrap(marker, "apiclient", operation, message, nil)}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code  int
	Fatal bool
	err   error
}

func (e *StatusError) Error() string { return e.err.Error() }

func (e *StatusError) Unwrap() error { return e.err }

// AsStatusError extracts a StatusError from err.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
