// Package session persists the state needed to resume a run that stopped on
// an anti-bot challenge.
package session

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
)

type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
}

type Session struct {
	ID        string    `json:"session_id"`
	URL       string    `json:"resumable_url"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`

	// Run context so a later scrape can pick up where this one stopped.
	Site   string   `json:"site,omitempty"`
	Query  string   `json:"query,omitempty"`
	Page   int      `json:"page,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// Store is keyed by session id. A session is single use: callers delete it
// once it has been consumed.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

func ValidID(id string) bool {
	return idRe.MatchString(id)
}

func expired(s *Session, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && !s.CreatedAt.IsZero() && now.Sub(s.CreatedAt) > ttl
}
