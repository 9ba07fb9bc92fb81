// Package httpapi exposes the feed, proxy, AI and hand-off endpoints over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/pagination"
	"ByteNewz/internal/ports"
	"ByteNewz/internal/provider"
)

// FeedService is the feed use case as seen by the handlers.
type FeedService interface {
	Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error)
	Page(ctx context.Context, nav *pagination.Navigator, target int) (domain.PageResult, pagination.State, error)
}

// Proxy forwards raw query parameters to the configured provider.
type Proxy interface {
	Passthrough(ctx context.Context, query url.Values) (provider.RawResponse, error)
}

// Deps wires the handlers to the application.
type Deps struct {
	Feed           FeedService
	Proxy          Proxy
	Content        ports.ContentGenerator
	Articles       ports.ArticleStore
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server holds the HTTP handlers and the per-session pagination state.
type Server struct {
	feed     FeedService
	proxy    Proxy
	content  ports.ContentGenerator
	articles ports.ArticleStore
	origins  []string
	sessions *sessions
	logger   *slog.Logger
}

// NewServer constructs the handler set.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		feed:     deps.Feed,
		proxy:    deps.Proxy,
		content:  deps.Content,
		articles: deps.Articles,
		origins:  deps.AllowedOrigins,
		sessions: newSessions(),
		logger:   logger,
	}
}

// Handler returns the routed handler wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/news", s.handleProxy)
	mux.HandleFunc("GET /api/feed", s.handleFeed)
	mux.HandleFunc("GET /api/feed/pages/{page}", s.handleFeedPage)
	mux.HandleFunc("POST /api/ai", s.handleAI)
	mux.HandleFunc("POST /api/articles", s.handlePutArticle)
	mux.HandleFunc("GET /api/articles/{key}", s.handleGetArticle)

	return s.accessLog(s.cors(mux))
}
