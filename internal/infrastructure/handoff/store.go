// Package handoff keeps articles in memory so a detail view can reopen one
// by key.
package handoff

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/ports"
)

const keyPrefix = "article-"

// Store is an unbounded in-memory article map. Entries never expire.
// TODO: bound the store once detail views report which keys are still open.
type Store struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
	logger   *slog.Logger
}

var _ ports.ArticleStore = (*Store)(nil)

// NewStore builds an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{articles: map[string]domain.Article{}, logger: logger}
}

// Key derives the stable key of an article URL.
func Key(articleURL string) string {
	sum := sha256.Sum256([]byte(articleURL))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Put stores article under the key of its URL and returns the key.
func (s *Store) Put(article domain.Article) string {
	key := Key(article.URL)

	s.mu.Lock()
	s.articles[key] = article
	size := len(s.articles)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("article handed off", "key", key, "stored", size)
	}
	return key
}

// Get returns the article stored under key.
func (s *Store) Get(key string) (domain.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[key]
	return a, ok
}

// Len is the number of stored articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}
