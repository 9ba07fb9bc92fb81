package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"ByteNewz/internal/domain"
)

// Mode selects which upstream endpoint a fetch is routed to.
type Mode int

const (
	// ModeTop requests the provider's headline feed with no category filter.
	ModeTop Mode = iota
	// ModeCategory requests headlines filtered by category.
	ModeCategory
	// ModeSearch requests a free-text search; the category is ignored.
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeCategory:
		return "category"
	default:
		return "top"
	}
}

// Resolve picks the routing mode for params. A non-empty query wins; a
// category other than "general" filters; anything else is the top feed.
func Resolve(params domain.FetchParams) Mode {
	if strings.TrimSpace(params.Query) != "" {
		return ModeSearch
	}
	if IsFilterCategory(params.Category) {
		return ModeCategory
	}
	return ModeTop
}

// IsFilterCategory reports whether category narrows the feed.
func IsFilterCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	return c != "" && c != domain.CategoryGeneral
}

// Provider is one upstream news API variant.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error)
}

// RawResponse is an upstream reply forwarded without normalization.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Passthrough is implemented by providers that can forward arbitrary query
// parameters to their base endpoint.
type Passthrough interface {
	Passthrough(ctx context.Context, query url.Values) (RawResponse, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Lookup returns a provider by name or an error if it is absent.
func (r *Registry) Lookup(name string) (Provider, error) {
	if p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("news provider %s is not registered", name)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
