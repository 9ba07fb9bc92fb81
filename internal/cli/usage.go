package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ByteNewz/internal/domain"
)

var flagSince string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize recorded upstream calls per provider",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&flagSince, "since", "7d", "window to summarize (e.g., 7d, 24h)")
}

func runUsage(cmd *cobra.Command, args []string) error {
	d, err := parseSince(flagSince)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}

	cfg, logger, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	application, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	reader := application.Usage()
	if reader == nil {
		return errors.New("usage ledger is disabled; set usage.driver to sqlite or postgres")
	}

	summaries, err := reader.Summary(ctx, time.Now().Add(-d))
	if err != nil {
		return fmt.Errorf("reading usage: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No upstream calls recorded.")
		return nil
	}
	return renderTable(cmd.OutOrStdout(), []string{"PROVIDER", "CALLS", "FAILURES", "AVG LATENCY"}, usageRows(summaries), 0)
}

func usageRows(summaries []domain.UsageSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Provider,
			strconv.Itoa(s.Calls),
			strconv.Itoa(s.Failures),
			s.AvgLatency.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
