package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/ports"
	"ByteNewz/internal/provider"
)

// ProviderSource implements NewsSource by delegating to the configured
// provider variant in the registry.
type ProviderSource struct {
	registry *provider.Registry
	active   string
	logger   *slog.Logger
}

var _ ports.NewsSource = (*ProviderSource)(nil)

// NewProviderSource wires the registry with the configured provider name.
func NewProviderSource(reg *provider.Registry, active string, log *slog.Logger) *ProviderSource {
	return &ProviderSource{
		registry: reg,
		active:   active,
		logger:   log,
	}
}

// Active returns the configured provider name.
func (s *ProviderSource) Active() string {
	return s.active
}

// Fetch executes params against the configured provider.
func (s *ProviderSource) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	return s.FetchFrom(ctx, s.active, params)
}

// FetchFrom executes params against the named provider.
func (s *ProviderSource) FetchFrom(ctx context.Context, name string, params domain.FetchParams) (domain.PageResult, error) {
	p, err := s.resolve(name)
	if err != nil {
		return domain.PageResult{}, err
	}

	s.debug("fetch page", "provider", p.Name(), "mode", provider.Resolve(params).String(),
		"page", params.Page, "has_cursor", params.Cursor != "")

	result, err := p.Fetch(ctx, params)
	if err != nil {
		return domain.PageResult{}, fmt.Errorf("fetch from %s: %w", p.Name(), err)
	}

	s.debug("provider produced articles", "provider", p.Name(), "count", len(result.Articles),
		"total", result.TotalResults, "has_next", result.HasNextPage)
	return result, nil
}

// Passthrough forwards query to the configured provider's raw endpoint.
func (s *ProviderSource) Passthrough(ctx context.Context, query url.Values) (provider.RawResponse, error) {
	p, err := s.resolve(s.active)
	if err != nil {
		return provider.RawResponse{}, err
	}
	pt, ok := p.(provider.Passthrough)
	if !ok {
		return provider.RawResponse{}, fmt.Errorf("news provider %s does not support pass-through", p.Name())
	}

	s.debug("proxy request", "provider", p.Name(), "params", len(query))
	return pt.Passthrough(ctx, query)
}

func (s *ProviderSource) resolve(name string) (provider.Provider, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("provider registry is not configured")
	}
	return s.registry.Lookup(name)
}

func (s *ProviderSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
