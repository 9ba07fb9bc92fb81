package ports

import (
	"context"
	"time"

	"ByteNewz/internal/domain"
)

// NewsSource returns one normalized page of articles for the given parameters.
type NewsSource interface {
	Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error)
}

// TextGenerator asks a generative-language model for a completion of a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContentGenerator produces alternate AI headlines and summaries. It never fails:
// errors degrade to the article's own title and description.
type ContentGenerator interface {
	Generate(ctx context.Context, article domain.Article) domain.AIContent
}

// UsageRecorder stores metadata about upstream calls.
type UsageRecorder interface {
	Record(ctx context.Context, event domain.UsageEvent) error
}

// UsageReader aggregates recorded upstream calls.
type UsageReader interface {
	Summary(ctx context.Context, since time.Time) ([]domain.UsageSummary, error)
}

// ArticleStore hands an article over between the feed and a detail view.
type ArticleStore interface {
	Put(article domain.Article) string
	Get(key string) (domain.Article, bool)
}
