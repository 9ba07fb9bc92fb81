// Package pagination tracks provider cursors across pages and decides which
// page transitions are legal.
package pagination

// History holds the cursor needed to request each known page. Position 0
// (page 1) is always the empty cursor.
type History struct {
	cursors []string
}

// NewHistory returns a history that only knows the first page.
func NewHistory() *History {
	return &History{cursors: []string{""}}
}

// Len is the number of pages whose cursor is known.
func (h *History) Len() int {
	return len(h.cursors)
}

// CursorFor returns the cursor for a 1-based page.
func (h *History) CursorFor(page int) (string, bool) {
	if page < 1 || page > len(h.cursors) {
		return "", false
	}
	return h.cursors[page-1], true
}

// Record stores the cursor returned while fetching page. Only a fetch at the
// frontier extends the history, so repeating the same fetch is a no-op.
func (h *History) Record(page int, nextCursor string) bool {
	if nextCursor == "" || page != len(h.cursors) {
		return false
	}
	h.cursors = append(h.cursors, nextCursor)
	return true
}

// Reset forgets every page but the first.
func (h *History) Reset() {
	h.cursors = h.cursors[:1]
}

// CanNavigate reports whether moving from current to target is allowed.
// Going back is always allowed; going forward needs a known cursor and a
// previous fetch that reported more pages.
func CanNavigate(current, target int, h *History, hasNextPage bool) bool {
	if target < 1 {
		return false
	}
	if target <= current {
		return true
	}
	if !hasNextPage {
		return false
	}
	return target <= h.Len()
}

// CanAdvance reports whether page+1 may be requested.
func CanAdvance(page int, h *History, hasNextPage bool) bool {
	return CanNavigate(page, page+1, h, hasNextPage)
}
