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

const apiTubeBaseURL = "https://api.apitube.io"

// APITube talks to apitube.io. The cursor is the page number advertised by
// next_page.
type APITube struct {
	c *client
}

var (
	_ provider.Provider    = (*APITube)(nil)
	_ provider.Passthrough = (*APITube)(nil)
)

// NewAPITube builds the APITube variant.
func NewAPITube(ep Endpoint) *APITube {
	if ep.BaseURL == "" {
		ep.BaseURL = apiTubeBaseURL
	}
	return &APITube{c: newClient("apitube", "X-API-Key", ep)}
}

func (a *APITube) Name() string { return "apitube" }

type apiTubeResponse struct {
	Status       string            `json:"status"`
	Page         int               `json:"page"`
	HasNextPages bool              `json:"has_next_pages"`
	NextPage     string            `json:"next_page"`
	Results      *[]apiTubeArticle `json:"results"`
	Errors       []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

type apiTubeArticle struct {
	Href        string `json:"href"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Image       string `json:"image"`
	PublishedAt string `json:"published_at"`
	Source      struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"source"`
}

// Fetch requests one page from the everything, topic or top-headlines endpoint.
func (a *APITube) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	page := pageFromParams(params)
	size := pageSizeOrDefault(params.PageSize)

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(size))
	query.Set("language.code", languageOrDefault(params.Language))

	path := "/v1/news/top-headlines"
	switch provider.Resolve(params) {
	case provider.ModeSearch:
		path = "/v1/news/everything"
		query.Set("title", strings.TrimSpace(params.Query))
	case provider.ModeCategory:
		path = "/v1/news/topic"
		query.Set("topic.id", strings.ToLower(strings.TrimSpace(params.Category)))
	}

	body, err := a.c.get(ctx, path, query)
	if err != nil {
		return domain.PageResult{}, err
	}

	var payload apiTubeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.PageResult{}, domain.MalformedError(a.Name(), err)
	}
	if payload.Status == "error" || len(payload.Errors) > 0 {
		msg := ""
		for _, e := range payload.Errors {
			if msg = firstNonEmpty(e.Message, e.Code); msg != "" {
				break
			}
		}
		return domain.PageResult{}, a.c.logicalError(msg)
	}
	if payload.Results == nil {
		return domain.PageResult{}, nil
	}

	raw := make([]domain.RawArticle, 0, len(*payload.Results))
	for _, r := range *payload.Results {
		raw = append(raw, domain.RawArticle{
			Title:       r.Title,
			Link:        r.Href,
			Description: r.Description,
			Content:     r.Body,
			ImageURL:    r.Image,
			PublishedAt: r.PublishedAt,
			SourceName:  firstNonEmpty(r.Source.Name, r.Source.Domain),
		})
	}

	articles := normalize.Normalize(raw)
	result := domain.PageResult{
		Articles:     articles,
		TotalResults: len(articles),
		HasNextPage:  payload.HasNextPages,
	}
	if payload.HasNextPages {
		result.NextCursor = nextAPITubePage(payload.NextPage, page)
	}
	return result, nil
}

// Passthrough forwards query to /v1/news/everything.
func (a *APITube) Passthrough(ctx context.Context, query url.Values) (provider.RawResponse, error) {
	return a.c.fetch(ctx, "/v1/news/everything", query)
}

func nextAPITubePage(nextPage string, current int) string {
	if u, err := url.Parse(nextPage); err == nil {
		if p := u.Query().Get("page"); p != "" {
			return p
		}
	}
	return strconv.Itoa(current + 1)
}
