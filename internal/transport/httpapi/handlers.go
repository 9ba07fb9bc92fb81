package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/pagination"
)

const (
	maxRequestBody = 1 << 20
	maxPageSize    = 100

	rateLimitedMessage = "Too many requests. Please try again later."
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

type pageBody struct {
	domain.PageResult
	Page       int `json:"page"`
	KnownPages int `json:"knownPages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProxy forwards the query string to the provider and relays its body.
// Upstream failures keep the upstream status.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proxy.Passthrough(r.Context(), r.URL.Query())
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode >= 400 {
			s.logger.Warn("proxy upstream error", "status", upstream.StatusCode, "error", err)
			writeJSON(w, upstream.StatusCode, errorBody{Error: upstreamMessage(upstream)})
			return
		}
		s.writeError(w, r, err)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1, 1, 0)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: page %v", errBadRequest, err))
		return
	}
	size, err := intParam(q.Get("pageSize"), 0, 1, maxPageSize)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: pageSize %v", errBadRequest, err))
		return
	}

	result, err := s.feed.Fetch(r.Context(), domain.FetchParams{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Cursor:   q.Get("cursor"),
		Page:     page,
		PageSize: size,
		Language: q.Get("language"),
		Country:  q.Get("country"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFeedPage serves session-tracked pages. q and category select the
// filter; changing them restarts pagination at page 1.
func (s *Server) handleFeedPage(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || target < 1 {
		s.writeError(w, r, fmt.Errorf("%w: page must be a positive integer", errBadRequest))
		return
	}

	nav := s.sessions.navigator(w, r)
	q := r.URL.Query()
	if nav.SetFilter(pagination.Filter{Query: q.Get("q"), Category: q.Get("category")}) {
		s.logger.Debug("session filter changed", "sessions", s.sessions.len())
	}

	result, state, err := s.feed.Page(r.Context(), nav, target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageBody{
		PageResult: result,
		Page:       state.Page,
		KnownPages: state.KnownPages,
	})
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	var article domain.Article
	if err := decodeJSON(w, r, &article); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(article.Title) == "" {
		s.writeError(w, r, fmt.Errorf("%w: title is required", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, s.content.Generate(r.Context(), article))
}

func (s *Server) handlePutArticle(w http.ResponseWriter, r *http.Request) {
	var article domain.Article
	if err := decodeJSON(w, r, &article); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(article.URL) == "" {
		s.writeError(w, r, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}
	key := s.articles.Put(article)
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := s.articles.Get(r.PathValue("key"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "article not found"})
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// writeError maps the error taxonomy to a status and a readable message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func classify(err error) (int, string) {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusInternalServerError, domain.ErrMissingCredential.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, rateLimitedMessage
	case errors.Is(err, domain.ErrPageUnavailable), errors.Is(err, domain.ErrStaleResult):
		return http.StatusConflict, err.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Error()
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream request timed out"
	default:
		return http.StatusInternalServerError, "Failed to fetch news"
	}
}

func upstreamMessage(e *domain.UpstreamError) string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Failed to fetch news: %d", e.StatusCode)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// intParam parses an optional integer. max <= 0 means unbounded.
func intParam(raw string, def, min, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if n < min || (max > 0 && n > max) {
		return 0, fmt.Errorf("out of range")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
