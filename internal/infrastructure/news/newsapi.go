package news

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/normalize"
	"ByteNewz/internal/provider"
)

const newsAPIBaseURL = "https://newsapi.org"

// NewsAPI talks to newsapi.org. Pages are numbered; the cursor is the next
// page number.
type NewsAPI struct {
	c *client
}

var (
	_ provider.Provider    = (*NewsAPI)(nil)
	_ provider.Passthrough = (*NewsAPI)(nil)
)

// NewNewsAPI builds the NewsAPI variant.
func NewNewsAPI(ep Endpoint) *NewsAPI {
	if ep.BaseURL == "" {
		ep.BaseURL = newsAPIBaseURL
	}
	return &NewsAPI{c: newClient("newsapi", "X-Api-Key", ep)}
}

func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status       string            `json:"status"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	TotalResults int               `json:"totalResults"`
	Articles     *[]newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Fetch requests one page from /v2/everything or /v2/top-headlines.
func (n *NewsAPI) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	page := pageFromParams(params)
	size := pageSizeOrDefault(params.PageSize)

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(size))

	path := "/v2/top-headlines"
	switch provider.Resolve(params) {
	case provider.ModeSearch:
		path = "/v2/everything"
		query.Set("q", strings.TrimSpace(params.Query))
		if params.Language != "" {
			query.Set("language", params.Language)
		}
	case provider.ModeCategory:
		query.Set("country", countryOrDefault(params.Country))
		query.Set("category", strings.ToLower(strings.TrimSpace(params.Category)))
	default:
		query.Set("country", countryOrDefault(params.Country))
	}

	body, err := n.c.get(ctx, path, query)
	if err != nil {
		return domain.PageResult{}, err
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.PageResult{}, domain.MalformedError(n.Name(), err)
	}
	if payload.Status == "error" {
		return domain.PageResult{}, n.c.logicalError(firstNonEmpty(payload.Message, payload.Code))
	}
	if payload.Articles == nil {
		return domain.PageResult{}, nil
	}

	raw := make([]domain.RawArticle, 0, len(*payload.Articles))
	for _, a := range *payload.Articles {
		raw = append(raw, domain.RawArticle{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Description,
			Content:     a.Content,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}

	total := payload.TotalResults
	if total <= 0 {
		total = len(raw)
	}

	result := domain.PageResult{
		Articles:     normalize.Normalize(raw),
		TotalResults: total,
		HasNextPage:  page*size < total,
	}
	if result.HasNextPage {
		result.NextCursor = strconv.Itoa(page + 1)
	}
	return result, nil
}

// Passthrough forwards query to /v2/everything when it carries q, else to
// /v2/top-headlines.
func (n *NewsAPI) Passthrough(ctx context.Context, query url.Values) (provider.RawResponse, error) {
	path := "/v2/top-headlines"
	if query.Get("q") != "" {
		path = "/v2/everything"
	}
	return n.c.fetch(ctx, path, query)
}
