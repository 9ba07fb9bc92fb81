package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/pagination"
	"ByteNewz/internal/ports"
)

// FeedDefaults are applied to fetches that leave a field empty.
type FeedDefaults struct {
	Language string
	Country  string
	PageSize int
}

// FeedDeps wires all driven adapters into the feed service.
type FeedDeps struct {
	Source   ports.NewsSource
	Defaults FeedDefaults
	Logger   *slog.Logger
}

// FeedService fetches normalized pages and drives session pagination.
type FeedService struct {
	source   ports.NewsSource
	defaults FeedDefaults
	logger   *slog.Logger
}

// NewFeedService constructs the feed component.
func NewFeedService(deps FeedDeps) *FeedService {
	d := deps.Defaults
	if d.Language == "" {
		d.Language = domain.DefaultLanguage
	}
	if d.Country == "" {
		d.Country = domain.DefaultCountry
	}
	if d.PageSize <= 0 {
		d.PageSize = domain.DefaultPageSize
	}
	return &FeedService{source: deps.Source, defaults: d, logger: deps.Logger}
}

// Fetch returns one page for params after applying defaults.
func (f *FeedService) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	if f.source == nil {
		return domain.PageResult{}, fmt.Errorf("news source is not configured")
	}

	params = f.withDefaults(params)
	result, err := f.source.Fetch(ctx, params)
	if err != nil {
		return domain.PageResult{}, err
	}
	if result.Articles == nil {
		result.Articles = []domain.Article{}
	}

	f.debug("feed page fetched", "query", params.Query, "category", params.Category,
		"page", params.Page, "articles", len(result.Articles), "has_next", result.HasNextPage)
	return result, nil
}

// Page moves nav to target and fetches it. It returns ErrPageUnavailable for
// an illegal move and ErrStaleResult when nav's filter changed mid-flight.
func (f *FeedService) Page(ctx context.Context, nav *pagination.Navigator, target int) (domain.PageResult, pagination.State, error) {
	ticket, err := nav.Begin(target)
	if err != nil {
		return domain.PageResult{}, nav.State(), err
	}

	result, err := f.Fetch(ctx, domain.FetchParams{
		Query:    ticket.Filter.Query,
		Category: ticket.Filter.Category,
		Cursor:   ticket.Cursor,
		Page:     ticket.Page,
	})
	if err != nil {
		return domain.PageResult{}, nav.State(), fmt.Errorf("fetch page %d: %w", target, err)
	}

	if !nav.Commit(ticket, result) {
		f.debug("stale page discarded", "page", target, "generation", ticket.Generation)
		return domain.PageResult{}, nav.State(), domain.ErrStaleResult
	}
	return result, nav.State(), nil
}

func (f *FeedService) withDefaults(p domain.FetchParams) domain.FetchParams {
	p.Query = strings.TrimSpace(p.Query)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.Category == "" {
		p.Category = domain.CategoryGeneral
	}
	if p.Language == "" {
		p.Language = f.defaults.Language
	}
	if p.Country == "" {
		p.Country = f.defaults.Country
	}
	if p.PageSize <= 0 {
		p.PageSize = f.defaults.PageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

func (f *FeedService) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
