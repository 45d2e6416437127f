// Package session wraps the signed cookie store that carries the
// logged-in account id between requests
package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "portal_session"
	keyUserID   = "user_id"
)

// Manager is the only writer of the session cookie. The cookie holds
// nothing but the account id. Roles are loaded from the database on
// every request, so promotions and demotions apply immediately.
type Manager struct {
	store *sessions.CookieStore
}

func NewManager(secret string, maxAge int, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{store: store}
}

func (m *Manager) SetUser(w http.ResponseWriter, r *http.Request, userID string) error {
	// A tampered or stale cookie decodes into an error plus a fresh
	// session. Use the fresh one instead of failing the login.
	s, _ := m.store.Get(r, sessionName)
	s.Values[keyUserID] = userID

	return s.Save(r, w)
}

func (m *Manager) UserID(r *http.Request) (string, bool) {
	s, err := m.store.Get(r, sessionName)
	if err != nil {
		return "", false
	}

	id, ok := s.Values[keyUserID].(string)
	return id, ok && id != ""
}

func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := m.store.Get(r, sessionName)
	s.Values = make(map[any]any)
	s.Options.MaxAge = -1

	return s.Save(r, w)
}
