package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ByteNewz/internal/domain"
)

const titleWidth = 60

var (
	flagQuery    string
	flagCategory string
	flagCursor   string
	flagPage     int
	flagPageSize int
	flagProvider string
	flagAI       bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one page of news and print it",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "search keywords")
	fetchCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "category (general, business, sports, ...)")
	fetchCmd.Flags().StringVar(&flagCursor, "cursor", "", "provider cursor from a previous page")
	fetchCmd.Flags().IntVar(&flagPage, "page", 1, "page number")
	fetchCmd.Flags().IntVar(&flagPageSize, "page-size", 0, "articles per page (default from config)")
	fetchCmd.Flags().StringVar(&flagProvider, "provider", "", "news provider (overrides news.provider)")
	fetchCmd.Flags().BoolVar(&flagAI, "ai", false, "replace titles with AI headlines")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if flagPage < 1 {
		return fmt.Errorf("invalid --page value: %d", flagPage)
	}

	cfg, logger, err := loadConfig(true)
	if err != nil {
		return err
	}
	if flagProvider != "" {
		cfg.News.Provider = strings.ToLower(strings.TrimSpace(flagProvider))
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --provider value: %w", err)
		}
	}

	ctx := cmd.Context()
	application, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Feed().Fetch(ctx, domain.FetchParams{
		Query:    flagQuery,
		Category: flagCategory,
		Cursor:   flagCursor,
		Page:     flagPage,
		PageSize: flagPageSize,
	})
	if err != nil {
		return fmt.Errorf("fetching news: %w", err)
	}

	if flagAI {
		for i, a := range result.Articles {
			result.Articles[i].Title = application.Content().Generate(ctx, a).Headline
		}
	}

	out := cmd.OutOrStdout()
	if err := renderTable(out, []string{"#", "PUBLISHED", "SOURCE", "TITLE"}, articleRows(result.Articles), titleWidth); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d article(s) of %d", len(result.Articles), result.TotalResults)
	if result.HasNextPage && result.NextCursor != "" {
		fmt.Fprintf(out, ", next: --page %d --cursor %s", flagPage+1, result.NextCursor)
	}
	fmt.Fprintln(out)
	return nil
}

func articleRows(articles []domain.Article) [][]string {
	rows := make([][]string, 0, len(articles))
	for i, a := range articles {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.PublishedAt.Local().Format("2006-01-02 15:04"),
			a.Source.Name,
			a.Title,
		})
	}
	return rows
}
