package httpapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"ByteNewz/internal/pagination"
)

const sessionCookie = "bytenewz_session"

// sessions maps session cookies to their pagination navigators.
type sessions struct {
	mu   sync.Mutex
	navs map[string]*pagination.Navigator
}

func newSessions() *sessions {
	return &sessions{navs: map[string]*pagination.Navigator{}}
}

// navigator returns the caller's navigator, starting a session when the
// request carries no known cookie.
func (s *sessions) navigator(w http.ResponseWriter, r *http.Request) *pagination.Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if nav, ok := s.navs[c.Value]; ok {
			return nav
		}
	}

	id := uuid.NewString()
	nav := pagination.NewNavigator()
	s.navs[id] = nav
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nav
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.navs)
}
