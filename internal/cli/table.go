package cli

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// renderTable writes rows as aligned columns under header. Widths are display
// widths, so wide runes line up. A positive limit truncates longer cells.
func renderTable(w io.Writer, header []string, rows [][]string, limit int) error {
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)
	for _, row := range rows {
		out := make([]string, len(header))
		for i := range out {
			if i < len(row) {
				out[i] = clip(row[i], limit)
			}
		}
		cells = append(cells, out)
	}

	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	var sb strings.Builder
	for r, row := range cells {
		for i, c := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			if i == len(row)-1 {
				sb.WriteString(c)
			} else {
				sb.WriteString(runewidth.FillRight(c, widths[i]))
			}
		}
		sb.WriteString("\n")
		if r == 0 {
			for i, width := range widths {
				if i > 0 {
					sb.WriteString("  ")
				}
				sb.WriteString(strings.Repeat("-", width))
			}
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func clip(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return s
	}
	return runewidth.Truncate(s, limit, "…")
}
