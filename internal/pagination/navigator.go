package pagination

import (
	"strings"
	"sync"

	"ByteNewz/internal/domain"
)

// Filter is the search state a page history belongs to.
type Filter struct {
	Query    string
	Category string
}

func (f Filter) normalized() Filter {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	if category == "" {
		category = domain.CategoryGeneral
	}
	return Filter{Query: strings.TrimSpace(f.Query), Category: category}
}

// Ticket authorizes one page fetch. It goes stale when the filter changes.
type Ticket struct {
	Generation uint64
	Page       int
	Cursor     string
	Filter     Filter
}

// State is a snapshot of a navigator.
type State struct {
	Page        int
	HasNextPage bool
	KnownPages  int
	Filter      Filter
}

// Navigator owns the pagination state of one client session.
type Navigator struct {
	mu          sync.Mutex
	filter      Filter
	history     *History
	page        int
	hasNextPage bool
	generation  uint64
}

// NewNavigator starts on page 1 of the general feed.
func NewNavigator() *Navigator {
	return &Navigator{
		filter:  Filter{}.normalized(),
		history: NewHistory(),
		page:    1,
	}
}

// SetFilter switches to a new filter. A change resets pagination and
// invalidates every outstanding ticket.
func (n *Navigator) SetFilter(f Filter) bool {
	f = f.normalized()

	n.mu.Lock()
	defer n.mu.Unlock()

	if f == n.filter {
		return false
	}
	n.filter = f
	n.history.Reset()
	n.page = 1
	n.hasNextPage = false
	n.generation++
	return true
}

// Begin checks that target is reachable and returns a ticket carrying its cursor.
func (n *Navigator) Begin(target int) (Ticket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if target != n.page && !CanNavigate(n.page, target, n.history, n.hasNextPage) {
		return Ticket{}, domain.ErrPageUnavailable
	}
	cursor, ok := n.history.CursorFor(target)
	if !ok {
		return Ticket{}, domain.ErrPageUnavailable
	}

	return Ticket{
		Generation: n.generation,
		Page:       target,
		Cursor:     cursor,
		Filter:     n.filter,
	}, nil
}

// Commit applies the result fetched with ticket. It returns false and leaves
// the state untouched when the ticket was issued before a filter change.
func (n *Navigator) Commit(t Ticket, result domain.PageResult) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t.Generation != n.generation {
		return false
	}

	n.page = t.Page
	n.hasNextPage = result.HasNextPage && result.NextCursor != ""
	if n.hasNextPage {
		n.history.Record(t.Page, result.NextCursor)
	}
	return true
}

// State returns a snapshot of the navigator.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	return State{
		Page:        n.page,
		HasNextPage: n.hasNextPage,
		KnownPages:  n.history.Len(),
		Filter:      n.filter,
	}
}
