// Package normalize turns provider records into deduplicated domain articles.
package normalize

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ByteNewz/internal/domain"
)

// removedTitle is the tombstone NewsAPI returns for withdrawn articles.
const removedTitle = "[Removed]"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// Normalizer maps raw provider records into articles. The zero value uses time.Now.
type Normalizer struct {
	Now func() time.Time
}

// Normalize applies the package-level normalizer.
func Normalize(records []domain.RawArticle) []domain.Article {
	return Normalizer{}.Normalize(records)
}

// Normalize drops records without a usable title or link, removes later
// duplicates by title or link, and fills the remaining fields with fallbacks.
// Relative order of surviving records is preserved.
func (n Normalizer) Normalize(records []domain.RawArticle) []domain.Article {
	now := n.Now
	if now == nil {
		now = time.Now
	}

	out := make([]domain.Article, 0, len(records))
	seenTitles := make(map[string]struct{}, len(records))
	seenLinks := make(map[string]struct{}, len(records))

	for _, rec := range records {
		title := collapseSpace(rec.Title)
		link := strings.TrimSpace(rec.Link)
		if !usableTitle(title) || link == "" {
			continue
		}

		_, dupTitle := seenTitles[title]
		_, dupLink := seenLinks[link]
		if dupTitle || dupLink {
			continue
		}
		seenTitles[title] = struct{}{}
		seenLinks[link] = struct{}{}

		out = append(out, build(rec, title, link, now))
	}

	return out
}

// Raw converts an article back into a raw record.
func Raw(a domain.Article) domain.RawArticle {
	return domain.RawArticle{
		Title:       a.Title,
		Link:        a.URL,
		Description: a.Description,
		Content:     a.Content,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt.Format(time.RFC3339Nano),
		SourceName:  a.Source.Name,
	}
}

func build(rec domain.RawArticle, title, link string, now func() time.Time) domain.Article {
	description := firstNonEmpty(cleanText(rec.Description), title)
	content := firstNonEmpty(cleanText(rec.Content), description, title)

	return domain.Article{
		Title:       title,
		Description: description,
		Content:     content,
		URL:         link,
		ImageURL:    firstNonEmpty(strings.TrimSpace(rec.ImageURL), domain.PlaceholderImage),
		PublishedAt: parseTime(rec.PublishedAt, now),
		Source:      domain.Source{Name: firstNonEmpty(strings.TrimSpace(rec.SourceName), domain.UnknownSource)},
	}
}

func usableTitle(title string) bool {
	return title != "" && title != removedTitle
}

func parseTime(value string, now func() time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now().UTC()
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return now().UTC()
}

// angleEscaper keeps decoded angle brackets from reading as markup on a
// later pass.
var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// cleanText reduces HTML fragments to text and collapses whitespace. Text
// without element nodes is left as is.
func cleanText(s string) string {
	if strings.Contains(s, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil && doc.Find("body *").Length() > 0 {
			s = angleEscaper.Replace(doc.Text())
		}
	}
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
