package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ByteNewz/internal/config"
	"ByteNewz/internal/domain"
	"ByteNewz/internal/logging"
)

func testConfig(t *testing.T, newsURL string) config.Config {
	t.Helper()
	return config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: time.Second,
		},
		News: config.NewsConfig{
			Provider: "newsapi",
			Language: "en",
			Country:  "us",
			PageSize: 12,
			Timeout:  5 * time.Second,
			NewsAPI:  config.EndpointConfig{BaseURL: newsURL, APIKey: "news-key"},
		},
		AI: config.AIConfig{Provider: "gemini", Timeout: time.Second},
		Usage: config.UsageConfig{
			Driver:        "sqlite",
			DSN:           filepath.Join(t.TempDir(), "usage.db"),
			Retention:     time.Hour,
			PruneInterval: time.Hour,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func TestApplicationServesFeedAndRecordsUsage(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "news-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[
			{"title":"Rates held","url":"https://example.com/rates","description":"The bank held rates.",
			 "publishedAt":"2025-05-01T10:00:00Z","source":{"name":"Wire"}}]}`))
	}))
	t.Cleanup(upstream.Close)

	ctx := context.Background()
	application, err := New(ctx, testConfig(t, upstream.URL), logging.NewWithWriter(&strings.Builder{}, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = application.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("feed status = %d, body %s", rec.Code, rec.Body.String())
	}
	var page domain.PageResult
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Articles) != 1 || page.Articles[0].Title != "Rates held" {
		t.Fatalf("articles = %+v", page.Articles)
	}

	summaries, err := application.Usage().Summary(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Provider != "newsapi" || summaries[0].Calls != 1 {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestApplicationFallsBackWithoutAIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Usage = config.UsageConfig{}
	application, err := New(context.Background(), cfg, logging.NewWithWriter(&strings.Builder{}, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = application.Close() })

	if application.Usage() != nil {
		t.Fatal("usage reader should be nil without a driver")
	}

	got := application.Content().Generate(context.Background(), domain.Article{Title: "T", Description: "D"})
	if got.Headline != "T" || got.Summary != "D" {
		t.Fatalf("content = %+v", got)
	}
}

func TestApplicationRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	application, err := New(context.Background(), cfg, logging.NewWithWriter(&strings.Builder{}, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = application.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
