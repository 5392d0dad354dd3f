package portal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/labmoura/laudos/internal/models"
)

// AdminLoginPath is where the gate sends the user after a forced logout.
const AdminLoginPath = "/admin/login"

// State is the gate's session state.
type State int

const (
	Anonymous State = iota
	ClientAuthenticated
	AdminAuthenticated
)

func (s State) String() string {
	switch s {
	case ClientAuthenticated:
		return "client"
	case AdminAuthenticated:
		return "admin"
	}
	return "anonymous"
}

// Session is an established identity. It is never mutated; login and logout
// replace it.
type Session struct {
	Actor     models.Actor
	ExpiresAt time.Time
}

func (s *Session) State() State {
	switch {
	case s == nil:
		return Anonymous
	case s.Actor.IsAdmin():
		return AdminAuthenticated
	}
	return ClientAuthenticated
}

func (s *Session) expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Gate holds the current session for one user of the portal.
type Gate struct {
	store    Store
	redirect func(path string)
	now      func() time.Time

	mu      sync.RWMutex
	session *Session
}

func NewGate(store Store, redirect func(path string)) *Gate {
	return &Gate{store: store, redirect: redirect, now: time.Now}
}

// LoginClient signs in the client registered under email. A failed attempt
// leaves the current session untouched.
func (g *Gate) LoginClient(ctx context.Context, email string) (models.Actor, error) {
	s, err := g.store.LoginClient(ctx, email)
	if err != nil {
		return models.Actor{}, err
	}
	g.set(s)
	return s.Actor, nil
}

func (g *Gate) LoginAdmin(ctx context.Context, email, password string) (models.Actor, error) {
	s, err := g.store.LoginAdmin(ctx, email, password)
	if err != nil {
		return models.Actor{}, err
	}
	g.set(s)
	return s.Actor, nil
}

// Resume adopts a session the store still holds from an earlier login, such
// as a persisted token. It reports whether a session was found.
func (g *Gate) Resume(ctx context.Context) (bool, error) {
	s, err := g.store.Resume(ctx)
	if err != nil {
		return false, err
	}
	if s == nil || s.expired(g.now()) {
		return false, nil
	}
	g.set(s)
	return true, nil
}

// Logout drops the session and the store's credentials. Safe to call in any
// state.
func (g *Gate) Logout() {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()
	g.store.Logout()
}

// Session returns the current session, nil when anonymous.
func (g *Gate) Session() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

func (g *Gate) State() State {
	return g.Session().State()
}

func (g *Gate) set(s *Session) {
	g.mu.Lock()
	g.session = s
	g.mu.Unlock()
}

// require returns the session if it satisfies the wanted role.
func (g *Gate) require(admin bool) (*Session, error) {
	s := g.Session()
	if s.expired(g.now()) {
		return nil, g.observe(ErrAuthExpired)
	}
	if s == nil || (admin && !s.Actor.IsAdmin()) {
		return nil, ErrForbidden
	}
	return s, nil
}

// observe handles an expired session centrally: the user is logged out and
// sent to the admin login.
func (g *Gate) observe(err error) error {
	if !errors.Is(err, ErrAuthExpired) {
		return err
	}
	prev := g.Session()
	g.Logout()
	slog.Info("session expired, logged out", "state", prev.State().String())
	if g.redirect != nil {
		g.redirect(AdminLoginPath)
	}
	return err
}
