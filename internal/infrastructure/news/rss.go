package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/normalize"
	"ByteNewz/internal/provider"
)

// RSS serves configured syndication feeds as a provider. Feeds are grouped by
// category; the "general" group backs the top feed and search spans every
// group. Pagination is local: the cursor is the next page number.
type RSS struct {
	feeds  map[string][]string
	order  []string
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ provider.Provider = (*RSS)(nil)

// NewRSS builds the RSS variant. A nil client falls back to a client with the
// default timeout.
func NewRSS(feeds map[string][]string, hc *http.Client, logger *slog.Logger) *RSS {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	parser := gofeed.NewParser()
	parser.Client = hc
	parser.UserAgent = userAgent

	normalized := make(map[string][]string, len(feeds))
	order := make([]string, 0, len(feeds))
	for category, urls := range feeds {
		key := strings.ToLower(strings.TrimSpace(category))
		if _, seen := normalized[key]; !seen {
			order = append(order, key)
		}
		normalized[key] = append(normalized[key], urls...)
	}
	sortCategories(order)

	return &RSS{feeds: normalized, order: order, parser: parser, logger: logger}
}

func (r *RSS) Name() string { return "rss" }

// Fetch downloads the feeds selected by params and returns one local page.
func (r *RSS) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	mode := provider.Resolve(params)
	urls := r.feedsFor(mode, params.Category)
	if len(urls) == 0 {
		return domain.PageResult{}, nil
	}

	raw, err := r.collect(ctx, urls)
	if err != nil {
		return domain.PageResult{}, err
	}

	if mode == provider.ModeSearch {
		raw = filterByQuery(raw, params.Query)
	}

	articles := normalize.Normalize(raw)
	page := pageFromParams(params)
	size := pageSizeOrDefault(params.PageSize)

	start := (page - 1) * size
	if start > len(articles) {
		start = len(articles)
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}

	result := domain.PageResult{
		Articles:     articles[start:end],
		TotalResults: len(articles),
		HasNextPage:  end < len(articles),
	}
	if result.HasNextPage {
		result.NextCursor = strconv.Itoa(page + 1)
	}
	return result, nil
}

func (r *RSS) feedsFor(mode provider.Mode, category string) []string {
	switch mode {
	case provider.ModeCategory:
		return r.feeds[strings.ToLower(strings.TrimSpace(category))]
	case provider.ModeTop:
		if general, ok := r.feeds[domain.CategoryGeneral]; ok {
			return general
		}
	}

	var all []string
	for _, c := range r.order {
		all = append(all, r.feeds[c]...)
	}
	return all
}

// collect fetches every feed concurrently and concatenates items in feed
// order. It fails only when no feed could be read.
func (r *RSS) collect(ctx context.Context, urls []string) ([]domain.RawArticle, error) {
	var (
		wg      sync.WaitGroup
		results = make([][]domain.RawArticle, len(urls))
		errs    = make([]error, len(urls))
	)

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i], errs[i] = r.fetchFeed(ctx, u)
		}(i, u)
	}
	wg.Wait()

	var (
		out      []domain.RawArticle
		firstErr error
		failed   int
	)
	for i := range urls {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			if r.logger != nil {
				r.logger.Warn("rss feed failed", "feed", urls[i], "error", errs[i])
			}
			continue
		}
		out = append(out, results[i]...)
	}

	if failed == len(urls) {
		return nil, firstErr
	}
	return out, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]domain.RawArticle, error) {
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
			return nil, domain.ErrRateLimited
		case errors.As(err, &httpErr):
			return nil, &domain.UpstreamError{Provider: r.Name(), StatusCode: httpErr.StatusCode}
		case errors.Is(err, gofeed.ErrFeedTypeNotDetected):
			return nil, domain.MalformedError(r.Name(), err)
		}
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	items := make([]domain.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, domain.RawArticle{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			ImageURL:    itemImage(item),
			PublishedAt: itemPublished(item),
			SourceName:  feed.Title,
		})
	}
	return items, nil
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func itemPublished(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}

func filterByQuery(items []domain.RawArticle, query string) []domain.RawArticle {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := items[:0:0]
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), needle) ||
			strings.Contains(strings.ToLower(it.Description), needle) {
			out = append(out, it)
		}
	}
	return out
}

// sortCategories keeps "general" first and the rest alphabetical, so that
// search results come out in a stable order.
func sortCategories(c []string) {
	sort.Slice(c, func(i, j int) bool {
		if c[i] == domain.CategoryGeneral || c[j] == domain.CategoryGeneral {
			return c[i] == domain.CategoryGeneral && c[j] != domain.CategoryGeneral
		}
		return c[i] < c[j]
	})
}
