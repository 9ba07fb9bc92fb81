package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/pagination"
	"ByteNewz/internal/queue"
)

type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.reply(prompt)
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	q := queue.New(0)
	q.Start()
	t.Cleanup(q.Close)
	return q
}

var sampleArticle = domain.Article{
	Title:       "Original title",
	Description: "Original description",
	Content:     "Body",
	URL:         "https://example.com/a",
}

func TestContentGeneratorCleansOutput(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Create a factual") {
			return "\n**\"Big (news)\"** today\nsecond line", nil
		}
		return "A  `summary`\n with #markup_ [links](x) ok=yes", nil
	}}

	cg := NewContentGenerator(ContentGeneratorDeps{Generator: gen, Queue: newTestQueue(t)})
	got := cg.Generate(context.Background(), sampleArticle)

	if got.Headline != "Big news today" {
		t.Errorf("unexpected headline %q", got.Headline)
	}
	if got.Summary != "A summary with markup linksx okyes" {
		t.Errorf("unexpected summary %q", got.Summary)
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.prompts) != 2 {
		t.Fatalf("expected two separate prompts, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "max 10 words") || !strings.Contains(gen.prompts[1], "exactly 100 words") {
		t.Fatalf("prompts out of order: %q", gen.prompts)
	}
	for _, p := range gen.prompts {
		if !strings.Contains(p, "Title: Original title\nDescription: Original description\nContent: Body") {
			t.Fatalf("prompt misses article text: %q", p)
		}
	}
}

func TestContentGeneratorFallsBack(t *testing.T) {
	t.Parallel()

	want := domain.AIContent{Headline: sampleArticle.Title, Summary: sampleArticle.Description}

	tests := []struct {
		name string
		cg   *ContentGenerator
	}{
		{"no generator", NewContentGenerator(ContentGeneratorDeps{Queue: newTestQueue(t)})},
		{"generator error", NewContentGenerator(ContentGeneratorDeps{
			Generator: &stubGenerator{reply: func(string) (string, error) { return "", errors.New("network down") }},
			Queue:     newTestQueue(t),
		})},
		{"missing credential", NewContentGenerator(ContentGeneratorDeps{
			Generator: &stubGenerator{reply: func(string) (string, error) { return "", domain.ErrMissingCredential }},
		})},
		{"summary fails only", NewContentGenerator(ContentGeneratorDeps{
			Generator: &stubGenerator{reply: func(p string) (string, error) {
				if strings.HasPrefix(p, "Analyze") {
					return "", domain.ErrMalformedResponse
				}
				return "headline", nil
			}},
			Queue: newTestQueue(t),
		})},
	}

	for _, tt := range tests {
		if got := tt.cg.Generate(context.Background(), sampleArticle); got != want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, want)
		}
	}
}

func TestContentGeneratorEmptyFieldFallsBack(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: func(p string) (string, error) {
		if strings.HasPrefix(p, "Create") {
			return "***", nil
		}
		return "Fine summary", nil
	}}
	got := NewContentGenerator(ContentGeneratorDeps{Generator: gen, Queue: newTestQueue(t)}).Generate(context.Background(), sampleArticle)
	if got.Headline != sampleArticle.Title || got.Summary != "Fine summary" {
		t.Fatalf("unexpected content %+v", got)
	}
}

func TestContentGeneratorPacesPrompts(t *testing.T) {
	t.Parallel()

	const delay = 30 * time.Millisecond
	q := queue.New(delay)
	q.Start()
	t.Cleanup(q.Close)

	var (
		mu     sync.Mutex
		starts []time.Time
	)
	gen := &stubGenerator{reply: func(string) (string, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return "text", nil
	}}

	NewContentGenerator(ContentGeneratorDeps{Generator: gen, Queue: q}).Generate(context.Background(), sampleArticle)

	mu.Lock()
	defer mu.Unlock()
	if len(starts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(starts))
	}
	if gap := starts[1].Sub(starts[0]); gap < delay {
		t.Fatalf("prompts started %v apart, want >= %v", gap, delay)
	}
}

type stubSource struct {
	mu      sync.Mutex
	calls   []domain.FetchParams
	results map[string]domain.PageResult
	hook    func(params domain.FetchParams)
	err     error
}

func (s *stubSource) Fetch(_ context.Context, params domain.FetchParams) (domain.PageResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(params)
	}
	if s.err != nil {
		return domain.PageResult{}, s.err
	}
	return s.results[params.Cursor], nil
}

func TestFeedFetchAppliesDefaults(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	feed := NewFeedService(FeedDeps{Source: src, Defaults: FeedDefaults{PageSize: 20}})

	got, err := feed.Fetch(context.Background(), domain.FetchParams{Query: "  mars ", Category: " Science "})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Articles == nil {
		t.Fatal("articles must be an empty slice, not nil")
	}

	p := src.calls[0]
	if p.Query != "mars" || p.Category != "science" || p.PageSize != 20 ||
		p.Language != "en" || p.Country != "us" || p.Page != 1 {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestFeedFetchPropagatesErrors(t *testing.T) {
	t.Parallel()

	feed := NewFeedService(FeedDeps{Source: &stubSource{err: domain.ErrRateLimited}})
	if _, err := feed.Fetch(context.Background(), domain.FetchParams{}); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestFeedPageFollowsCursors(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: map[string]domain.PageResult{
		"":   {Articles: []domain.Article{{Title: "p1"}}, HasNextPage: true, NextCursor: "c2"},
		"c2": {Articles: []domain.Article{{Title: "p2"}}, HasNextPage: false},
	}}
	feed := NewFeedService(FeedDeps{Source: src})
	nav := pagination.NewNavigator()

	if _, _, err := feed.Page(context.Background(), nav, 1); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	got, st, err := feed.Page(context.Background(), nav, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if got.Articles[0].Title != "p2" || st.Page != 2 || st.HasNextPage {
		t.Fatalf("unexpected page 2: %+v state %+v", got, st)
	}
	if src.calls[1].Cursor != "c2" || src.calls[1].Page != 2 {
		t.Fatalf("page 2 fetched with %+v", src.calls[1])
	}

	if _, st, err := feed.Page(context.Background(), nav, 3); !errors.Is(err, domain.ErrPageUnavailable) || st.Page != 2 {
		t.Fatalf("expected ErrPageUnavailable on page 2, got %v (state %+v)", err, st)
	}
	if len(src.calls) != 2 {
		t.Fatalf("illegal transition must not reach the provider, got %d calls", len(src.calls))
	}
}

func TestFeedPageDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	nav := pagination.NewNavigator()
	src := &stubSource{results: map[string]domain.PageResult{
		"": {Articles: []domain.Article{{Title: "old"}}, HasNextPage: true, NextCursor: "c2"},
	}}
	src.hook = func(domain.FetchParams) {
		nav.SetFilter(pagination.Filter{Category: "sports"})
	}
	feed := NewFeedService(FeedDeps{Source: src})

	if _, _, err := feed.Page(context.Background(), nav, 1); !errors.Is(err, domain.ErrStaleResult) {
		t.Fatalf("expected ErrStaleResult, got %v", err)
	}
	if st := nav.State(); st.KnownPages != 1 || st.Filter.Category != "sports" {
		t.Fatalf("stale result leaked into navigator: %+v", st)
	}
}
