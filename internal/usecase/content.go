package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/ports"
	"ByteNewz/internal/queue"
)

// strippedRunes are removed from generated text before it is served.
const strippedRunes = "*\"'_`~#><[](){}|\\^="

// ContentGeneratorDeps wires the generator's collaborators.
type ContentGeneratorDeps struct {
	Generator ports.TextGenerator
	Queue     *queue.Queue
	Logger    *slog.Logger
}

// ContentGenerator produces an alternate headline and summary per article.
type ContentGenerator struct {
	generator ports.TextGenerator
	queue     *queue.Queue
	logger    *slog.Logger
}

var _ ports.ContentGenerator = (*ContentGenerator)(nil)

// NewContentGenerator constructs the generator. A nil Generator makes every
// call fall back to the article's own text.
func NewContentGenerator(deps ContentGeneratorDeps) *ContentGenerator {
	return &ContentGenerator{
		generator: deps.Generator,
		queue:     deps.Queue,
		logger:    deps.Logger,
	}
}

// Generate never fails. Both prompts go through the request queue as
// separate tasks; any error yields the article title and description.
func (g *ContentGenerator) Generate(ctx context.Context, article domain.Article) domain.AIContent {
	fallback := domain.AIContent{Headline: article.Title, Summary: article.Description}

	if g.generator == nil {
		g.warn("ai generation skipped", article, domain.ErrMissingCredential)
		return fallback
	}

	combined := fmt.Sprintf("Title: %s\nDescription: %s\nContent: %s", article.Title, article.Description, article.Content)
	headlinePrompt := "Create a factual, engaging headline (max 10 words) that captures the main point of this news: " + combined
	summaryPrompt := "Analyze this news article and provide a comprehensive summary in exactly 100 words. " +
		"Include the main event, key details, implications, and relevant context: " + combined

	headline, summary, err := g.run(ctx, headlinePrompt, summaryPrompt)
	if err != nil {
		g.warn("ai generation failed", article, err)
		return fallback
	}

	out := domain.AIContent{
		Headline: cleanText(firstLine(headline)),
		Summary:  cleanText(summary),
	}
	if out.Headline == "" {
		out.Headline = fallback.Headline
	}
	if out.Summary == "" {
		out.Summary = fallback.Summary
	}
	return out
}

func (g *ContentGenerator) run(ctx context.Context, headlinePrompt, summaryPrompt string) (string, string, error) {
	task := func(prompt string) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			return g.generator.Generate(ctx, prompt)
		}
	}

	if g.queue == nil {
		headline, err := task(headlinePrompt)(ctx)
		if err != nil {
			return "", "", fmt.Errorf("generate headline: %w", err)
		}
		summary, err := task(summaryPrompt)(ctx)
		if err != nil {
			return "", "", fmt.Errorf("generate summary: %w", err)
		}
		return headline, summary, nil
	}

	headlineF := queue.Enqueue(ctx, g.queue, task(headlinePrompt))
	summaryF := queue.Enqueue(ctx, g.queue, task(summaryPrompt))

	headline, hErr := headlineF.Wait(ctx)
	summary, sErr := summaryF.Wait(ctx)
	if hErr != nil {
		return "", "", fmt.Errorf("generate headline: %w", hErr)
	}
	if sErr != nil {
		return "", "", fmt.Errorf("generate summary: %w", sErr)
	}
	return headline, summary, nil
}

func (g *ContentGenerator) warn(msg string, article domain.Article, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, "url", article.URL, "error", err)
	}
}

func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedRunes, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
