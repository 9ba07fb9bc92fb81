package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/normalize"
	"ByteNewz/internal/provider"
)

const (
	newsDataHubBaseURL = "https://api.newsdatahub.com"
	newsDataHubPath    = "/v1/news"
	proxyPageSize      = "10"
)

// NewsDataHub talks to newsdatahub.com, which paginates with opaque cursors.
type NewsDataHub struct {
	c *client
}

var (
	_ provider.Provider    = (*NewsDataHub)(nil)
	_ provider.Passthrough = (*NewsDataHub)(nil)
)

// NewNewsDataHub builds the NewsDataHub variant.
func NewNewsDataHub(ep Endpoint) *NewsDataHub {
	if ep.BaseURL == "" {
		ep.BaseURL = newsDataHubBaseURL
	}
	return &NewsDataHub{c: newClient("newsdatahub", "X-Api-Key", ep)}
}

func (n *NewsDataHub) Name() string { return "newsdatahub" }

type newsDataHubResponse struct {
	NextCursor   *string               `json:"next_cursor"`
	TotalResults int                   `json:"total_results"`
	PerPage      int                   `json:"per_page"`
	Data         *[]newsDataHubArticle `json:"data"`
	Error        string                `json:"error"`
}

type newsDataHubArticle struct {
	Title       string `json:"title"`
	SourceTitle string `json:"source_title"`
	ArticleLink string `json:"article_link"`
	Description string `json:"description"`
	PubDate     string `json:"pub_date"`
	Content     string `json:"content"`
	MediaURL    string `json:"media_url"`
}

// Fetch requests one page; params.Cursor is passed through verbatim.
func (n *NewsDataHub) Fetch(ctx context.Context, params domain.FetchParams) (domain.PageResult, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(pageSizeOrDefault(params.PageSize)))
	query.Set("language", languageOrDefault(params.Language))
	if cursor := strings.TrimSpace(params.Cursor); cursor != "" {
		query.Set("cursor", cursor)
	}

	switch provider.Resolve(params) {
	case provider.ModeSearch:
		query.Set("q", strings.TrimSpace(params.Query))
	case provider.ModeCategory:
		query.Set("topic", strings.ToLower(strings.TrimSpace(params.Category)))
	}

	body, err := n.c.get(ctx, newsDataHubPath, query)
	if err != nil {
		return domain.PageResult{}, err
	}

	var payload newsDataHubResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.PageResult{}, domain.MalformedError(n.Name(), err)
	}
	if payload.Error != "" {
		return domain.PageResult{}, n.c.logicalError(payload.Error)
	}
	if payload.Data == nil {
		return domain.PageResult{}, nil
	}

	raw := make([]domain.RawArticle, 0, len(*payload.Data))
	for _, d := range *payload.Data {
		raw = append(raw, domain.RawArticle{
			Title:       d.Title,
			Link:        d.ArticleLink,
			Description: d.Description,
			Content:     d.Content,
			ImageURL:    d.MediaURL,
			PublishedAt: d.PubDate,
			SourceName:  d.SourceTitle,
		})
	}

	total := payload.TotalResults
	if total <= 0 {
		total = len(raw)
	}

	result := domain.PageResult{
		Articles:     normalize.Normalize(raw),
		TotalResults: total,
	}
	if payload.NextCursor != nil && *payload.NextCursor != "" {
		result.HasNextPage = true
		result.NextCursor = *payload.NextCursor
	}
	return result, nil
}

// Passthrough forwards query to /v1/news. per_page and pageSize collapse into
// per_page, topic=general is dropped, and the JSON reply is completed with
// per_page, total_results and next_cursor.
func (n *NewsDataHub) Passthrough(ctx context.Context, query url.Values) (provider.RawResponse, error) {
	size := firstNonEmpty(query.Get("per_page"), query.Get("pageSize"), proxyPageSize)

	forward := url.Values{}
	for key, values := range query {
		switch key {
		case "per_page", "pageSize":
			continue
		case "topic":
			for _, v := range values {
				if !strings.EqualFold(v, domain.CategoryGeneral) {
					forward.Add(key, v)
				}
			}
			continue
		}
		for _, v := range values {
			forward.Add(key, v)
		}
	}
	forward.Set("per_page", size)

	resp, err := n.c.fetch(ctx, newsDataHubPath, forward)
	if err != nil {
		return resp, err
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return resp, domain.MalformedError(n.Name(), err)
	}

	perPage, err := strconv.Atoi(size)
	if err != nil {
		perPage, _ = strconv.Atoi(proxyPageSize)
	}
	body["per_page"] = perPage
	if total, ok := body["total_results"].(float64); !ok || total == 0 {
		items, _ := body["data"].([]any)
		body["total_results"] = len(items)
	}
	if cursor, ok := body["next_cursor"].(string); !ok || cursor == "" {
		body["next_cursor"] = nil
	}

	completed, err := json.Marshal(body)
	if err != nil {
		return resp, fmt.Errorf("encode %s response: %w", n.Name(), err)
	}
	resp.Body = completed
	resp.ContentType = "application/json"
	return resp, nil
}
