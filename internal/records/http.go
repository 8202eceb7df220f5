package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/normalize"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// HTTPSource reads records from the legacy REST backend. Calls go through a
// circuit breaker so a failing upstream is not hammered by every dashboard
// refresh; there are no retries.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// NewHTTPSource creates a source for cfg.BaseURL.
func NewHTTPSource(cfg config.UpstreamConfig, log *zap.Logger, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(s)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "upstream-records",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// Missing records and refused payloads mean the upstream is healthy.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRejected) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

func (s *HTTPSource) FetchAppointments(ctx context.Context) ([]normalize.Raw, error) {
	body, err := s.do(ctx, http.MethodGet, "/appointments", nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func (s *HTTPSource) FetchAppointmentByID(ctx context.Context, id string) (normalize.Raw, error) {
	body, err := s.do(ctx, http.MethodGet, "/appointments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(body)
}

func (s *HTTPSource) FetchPatients(ctx context.Context) ([]normalize.Raw, error) {
	body, err := s.do(ctx, http.MethodGet, "/patients", nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func (s *HTTPSource) FetchPatientByID(ctx context.Context, id string) (normalize.Raw, error) {
	body, err := s.do(ctx, http.MethodGet, "/patients/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(body)
}

func (s *HTTPSource) UpdateAppointment(ctx context.Context, id string, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrRejected, err)
	}
	_, err = s.do(ctx, http.MethodPatch, "/appointments/"+url.PathEscape(id), b)
	return err
}

func (s *HTTPSource) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.roundTrip(ctx, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	return body, err
}

func (s *HTTPSource) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRejected, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s after %s: %v", ErrUnavailable, method, path, time.Since(start), err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s %s: %s", ErrRejected, method, path, upstreamMessage(body))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}
	return body, nil
}

// unwrap accepts a bare payload or one wrapped in {"data": ...}.
func unwrap(body []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return env.Data
		}
	}
	return trimmed
}

// decodeList fails only when the body is not a list. Malformed elements
// come back as empty records in place.
func decodeList(body []byte) ([]normalize.Raw, error) {
	out, err := normalize.DecodeList(unwrap(body))
	if err != nil {
		return nil, fmt.Errorf("%w: decode list: %v", ErrUnavailable, err)
	}
	return out, nil
}

func decodeOne(body []byte) (normalize.Raw, error) {
	var out normalize.Raw
	if err := json.Unmarshal(unwrap(body), &out); err != nil {
		return nil, fmt.Errorf("%w: decode record: %v", ErrUnavailable, err)
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func upstreamMessage(body []byte) string {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		if msg.Message != "" {
			return msg.Message
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
