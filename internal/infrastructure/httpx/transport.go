// Package httpx provides the instrumented HTTP client used for upstream calls.
package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/ports"
)

// Transport logs every upstream call and hands a usage event to the recorder.
// Endpoints are logged and recorded without their query string so API keys
// passed as parameters never leak.
type Transport struct {
	base     http.RoundTripper
	provider string
	recorder ports.UsageRecorder
	logger   *slog.Logger
	now      func() time.Time
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport wraps base. A nil base uses http.DefaultTransport; a nil
// recorder only logs.
func NewTransport(base http.RoundTripper, provider string, recorder ports.UsageRecorder, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:     base,
		provider: provider,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// NewClient returns an http.Client using an instrumented transport.
func NewClient(timeout time.Duration, provider string, recorder ports.UsageRecorder, logger *slog.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, provider, recorder, logger),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.now()
	resp, err := t.base.RoundTrip(req)
	elapsed := t.now().Sub(start)

	event := domain.UsageEvent{
		ID:         uuid.NewString(),
		Provider:   t.provider,
		Method:     req.Method,
		Endpoint:   endpoint(req),
		Duration:   elapsed,
		OccurredAt: start.UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	} else {
		event.StatusCode = resp.StatusCode
	}

	t.log(event)
	if t.recorder != nil {
		// The request context may already be done once the caller reads the body.
		ctx := context.WithoutCancel(req.Context())
		if recErr := t.recorder.Record(ctx, event); recErr != nil && t.logger != nil {
			t.logger.Warn("record usage event", "provider", t.provider, "error", recErr)
		}
	}

	return resp, err
}

func (t *Transport) log(e domain.UsageEvent) {
	if t.logger == nil {
		return
	}
	args := []any{
		"provider", e.Provider,
		"method", e.Method,
		"endpoint", e.Endpoint,
		"status", e.StatusCode,
		"duration", e.Duration,
	}
	if e.Failed() {
		if e.Error != "" {
			args = append(args, "error", e.Error)
		}
		t.logger.Warn("upstream call failed", args...)
		return
	}
	t.logger.Debug("upstream call", args...)
}

func endpoint(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
}
