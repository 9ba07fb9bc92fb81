package domain

import "time"

const (
	// PlaceholderImage is served when a provider record carries no image.
	PlaceholderImage = "/placeholder-image.jpg"
	// UnknownSource names the publisher of records without source metadata.
	UnknownSource = "Unknown Source"
	// CategoryGeneral is the universal "no filter" category.
	CategoryGeneral = "general"

	DefaultPageSize = 12
	DefaultCountry  = "us"
	DefaultLanguage = "en"
)

// Article is the provider-agnostic news record served to clients.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      Source    `json:"source"`
}

// Source identifies the publisher of an article.
type Source struct {
	Name string `json:"name"`
}

// RawArticle is what a provider decoder extracts from its own response shape
// before normalization. Every field may be empty.
type RawArticle struct {
	Title       string
	Link        string
	Description string
	Content     string
	ImageURL    string
	PublishedAt string
	SourceName  string
}

// PageResult is one page of normalized articles plus pagination metadata.
type PageResult struct {
	Articles     []Article `json:"articles"`
	TotalResults int       `json:"totalResults"`
	HasNextPage  bool      `json:"hasNextPage"`
	NextCursor   string    `json:"nextCursor,omitempty"`
}

// FetchParams describes a single page request against a news provider.
type FetchParams struct {
	Query    string
	Category string
	Cursor   string
	Page     int
	Language string
	Country  string
	PageSize int
}

// AIContent is the generated alternate headline and summary of an article.
type AIContent struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}
