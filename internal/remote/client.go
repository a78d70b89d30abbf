package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"admin-store/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

// Pagination is the paging block of a list response
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Envelope is the uniform response body of the admin API
type Envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Decode unmarshals the envelope data into out
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Client is a thin HTTP wrapper around the remote admin API
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenStore
	onUnauthorized func()
	logger         *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient uses a copy of hc with the client's timeout; hc itself is not modified
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		cp := *hc
		cp.Timeout = c.http.Timeout
		c.http = &cp
	}
}

// WithUnauthorizedHandler sets the hook run after a 401, typically a redirect to the login boundary
func WithUnauthorizedHandler(fn func()) ClientOption {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithClientLogger sets the client logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a remote client with a fixed request timeout
func NewClient(baseURL string, timeout time.Duration, tokens TokenStore, opts ...ClientOption) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore("")
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		tokens:         tokens,
		onUnauthorized: func() {},
		logger:         util.NamedLogger("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the token store backing the session
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// HasSession reports whether a bearer token is present
func (c *Client) HasSession(ctx context.Context) bool {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("Failed to read session token", zap.Error(err))
		return false
	}
	return token != ""
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodDelete, path, nil)
}

// Upload sends a file as multipart form data along with extra form fields
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, fields map[string]string) (*Envelope, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType())
}

// Ping reports whether the API answered at all; any HTTP response counts as reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*Envelope, error) {
	if body == nil {
		return c.do(ctx, method, path, nil, "")
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Envelope, error) {
	ctx, span := util.StartSpan(ctx, "RemoteClient."+method,
		attribute.String("http.method", method),
		attribute.String("http.path", path))
	defer span.End()

	start := time.Now()
	env, status, err := c.roundTrip(ctx, method, path, body, contentType)
	util.RemoteRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	util.RecordError(span, err)

	if err != nil {
		c.logger.Debug("Remote request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Error(err))
	}
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string) (*Envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("Failed to read session token", zap.Error(err))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, &APIError{Message: "Failed to read response", Status: resp.StatusCode, Err: err}
	}
	env, parseErr := parseEnvelope(raw)

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		return nil, resp.StatusCode, errorFrom(env, resp.StatusCode, "Unauthorized")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, errorFrom(env, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if parseErr != nil {
		return nil, resp.StatusCode, &APIError{Message: "Invalid response body", Status: resp.StatusCode, Err: parseErr}
	}
	if !env.Success {
		return nil, resp.StatusCode, errorFrom(env, resp.StatusCode, "Request failed")
	}
	return env, resp.StatusCode, nil
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	util.UnauthorizedTotal.Inc()
	if err := c.tokens.ClearToken(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("Failed to clear session token", zap.Error(err))
	}
	c.logger.Warn("Session rejected by remote API, token cleared")
	c.onUnauthorized()
}

// parseEnvelope accepts either the admin envelope or a bare JSON payload,
// which is treated as successful data.
func parseEnvelope(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Envelope{Success: true}, nil
	}

	var head struct {
		Success    *bool               `json:"success"`
		Data       json.RawMessage     `json:"data"`
		Message    string              `json:"message"`
		Errors     map[string][]string `json:"errors"`
		Pagination *Pagination         `json:"pagination"`
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &head); err != nil {
			return nil, err
		}
		if head.Success != nil {
			return &Envelope{
				Success:    *head.Success,
				Data:       head.Data,
				Message:    head.Message,
				Errors:     head.Errors,
				Pagination: head.Pagination,
			}, nil
		}
	}
	if !json.Valid(trimmed) {
		return nil, errors.New("response is not valid JSON")
	}
	return &Envelope{Success: true, Data: json.RawMessage(trimmed)}, nil
}

func errorFrom(env *Envelope, status int, fallback string) *APIError {
	apiErr := &APIError{Message: fallback, Status: status}
	if env != nil {
		if env.Message != "" {
			apiErr.Message = env.Message
		}
		apiErr.Errors = env.Errors
	}
	return apiErr
}

func transportError(ctx context.Context, err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Message: "Request timeout", Err: err}
	}
	if ctx.Err() != nil {
		return &APIError{Message: "Request cancelled", Err: err}
	}
	return &APIError{Message: "Network error", Err: err}
}
