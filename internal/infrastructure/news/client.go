// Package news implements the upstream news API variants.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/provider"
)

const (
	maxBodyBytes   = 4 << 20
	defaultTimeout = 15 * time.Second
	userAgent      = "ByteNewz/1.0"
)

// Endpoint holds what every API-backed variant needs to reach its upstream.
type Endpoint struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// client performs authenticated GETs against one provider and maps transport
// failures to the domain error taxonomy.
type client struct {
	provider  string
	baseURL   string
	keyHeader string
	apiKey    string
	http      *http.Client
}

func newClient(providerName, keyHeader string, ep Endpoint) *client {
	hc := ep.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &client{
		provider:  providerName,
		baseURL:   strings.TrimRight(ep.BaseURL, "/"),
		keyHeader: keyHeader,
		apiKey:    strings.TrimSpace(ep.APIKey),
		http:      hc,
	}
}

// get returns the body of a 2xx response.
func (c *client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.fetch(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// fetch returns a 2xx reply as is and maps any other status to the error
// taxonomy.
func (c *client) fetch(ctx context.Context, path string, query url.Values) (provider.RawResponse, error) {
	resp, err := c.do(ctx, path, query)
	if err != nil {
		return provider.RawResponse{}, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp, domain.ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp, &domain.UpstreamError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}
	return resp, nil
}

// do returns the upstream reply for any status.
func (c *client) do(ctx context.Context, path string, query url.Values) (provider.RawResponse, error) {
	if c.apiKey == "" {
		return provider.RawResponse{}, domain.ErrMissingCredential
	}

	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return provider.RawResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set(c.keyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return provider.RawResponse{}, fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return provider.RawResponse{}, fmt.Errorf("read %s response: %w", c.provider, err)
	}

	return provider.RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *client) logicalError(msg string) error {
	return &domain.UpstreamError{Provider: c.provider, StatusCode: http.StatusOK, Message: msg}
}

// errorMessage digs the human-readable message out of the error envelopes the
// supported providers use: {message}, {error: "..."}, {error: {message}} and
// {errors: [{message}]}.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if len(envelope.Error) > 0 {
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	for _, e := range envelope.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

// pageFromParams reads the page number from a numeric cursor, then from Page.
func pageFromParams(params domain.FetchParams) int {
	if n, err := strconv.Atoi(strings.TrimSpace(params.Cursor)); err == nil && n > 0 {
		return n
	}
	if params.Page > 0 {
		return params.Page
	}
	return 1
}

func pageSizeOrDefault(size int) int {
	if size <= 0 {
		return domain.DefaultPageSize
	}
	return size
}

func countryOrDefault(country string) string {
	if c := strings.ToLower(strings.TrimSpace(country)); c != "" {
		return c
	}
	return domain.DefaultCountry
}

func languageOrDefault(language string) string {
	if l := strings.ToLower(strings.TrimSpace(language)); l != "" {
		return l
	}
	return domain.DefaultLanguage
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
