package handoff

import (
	"strings"
	"testing"

	"ByteNewz/internal/domain"
)

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	a := domain.Article{Title: "A", URL: "https://example.com/a"}

	key := s.Put(a)
	if !strings.HasPrefix(key, "article-") || len(key) != len("article-")+32 {
		t.Fatalf("unexpected key %q", key)
	}
	if key != Key(a.URL) {
		t.Fatalf("key is not derived from the url")
	}

	got, ok := s.Get(key)
	if !ok || got.Title != "A" {
		t.Fatalf("Get(%q) = %+v, %v", key, got, ok)
	}

	if s.Put(domain.Article{Title: "A updated", URL: a.URL}) != key || s.Len() != 1 {
		t.Fatalf("same url must reuse the key")
	}
	if _, ok := s.Get("article-missing"); ok {
		t.Fatal("unknown key must miss")
	}
}
