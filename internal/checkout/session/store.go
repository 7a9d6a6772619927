// Package session owns the cart identifier of the active shopping session.
// The identifier is the only durable state of the orchestrator and lives
// client-side in a cookie; absence means "no active session".
package session

import (
	"net/http"
	"time"
)

// Store reads and writes the persisted cart identifier for one browsing
// session.
type Store interface {
	// CartID returns the stored identifier, if any.
	CartID() (string, bool)
	// SetCartID overwrites the stored identifier.
	SetCartID(id string) error
	// Clear drops the stored identifier. Called only after successful
	// completion.
	Clear() error
}

const cookieMaxAge = 30 * 24 * time.Hour

// CookieStore persists the cart identifier in a client cookie scoped to one
// request/response pair.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	name   string
	secure bool

	// pending mirrors a value written during this request so reads after a
	// write see it without re-parsing headers.
	pending string
	cleared bool
}

// NewCookieStore wraps the request pair. name is the cookie name, typically
// "cart_id".
func NewCookieStore(w http.ResponseWriter, r *http.Request, name string, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, name: name, secure: secure}
}

func (s *CookieStore) CartID() (string, bool) {
	if s.cleared {
		return "", false
	}
	if s.pending != "" {
		return s.pending, true
	}
	c, err := s.r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) SetCartID(id string) error {
	s.pending = id
	s.cleared = false
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) Clear() error {
	s.pending = ""
	s.cleared = true
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	id string
	ok bool
}

func (s *MemoryStore) CartID() (string, bool) { return s.id, s.ok }

func (s *MemoryStore) SetCartID(id string) error {
	s.id, s.ok = id, true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.id, s.ok = "", false
	return nil
}
