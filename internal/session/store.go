// Package session is the single source of truth for "who is logged in",
// durable across restarts. All mutation goes through Restore, Login and
// Logout; callers serialize those (the UI disables the login form while a
// login is in flight).
package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tmoreno/drivermate/internal/api"
	"github.com/tmoreno/drivermate/internal/credfile"
	"github.com/tmoreno/drivermate/internal/token"
)

// ErrEmptyCredentials rejects a login attempt before any network call.
var ErrEmptyCredentials = errors.New("session: email and password required")

// Session is the live record of the authenticated identity. UserID and Role
// are populated exactly when Token is present and well-formed; a malformed
// token never yields a partial session.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// APIClient is the slice of the dispatch client the store needs.
type APIClient interface {
	Login(ctx context.Context, email, password string) (api.Credentials, error)
	Logout(ctx context.Context)
	SetAuthToken(tok string)
}

// Store owns the process's one live session.
type Store struct {
	api     APIClient
	creds   *credfile.Store
	current *Session
}

// New wires the store to its credential file and API client.
func New(client APIClient, creds *credfile.Store) *Store {
	return &Store{api: client, creds: creds}
}

// Current returns the live session, or ok=false when logged out.
func (s *Store) Current() (Session, bool) {
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Restore rebuilds the session from the persisted token at startup. A
// missing token means logged out. A token that no longer decodes is dropped
// silently — the stored entry is left in place and will be overwritten by
// the next login. Must complete before the first view is chosen.
func (s *Store) Restore() error {
	tok, err := s.creds.Load()
	if errors.Is(err, credfile.ErrNoToken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: restore: %w", err)
	}

	claims, err := token.Decode(tok)
	if err != nil {
		log.Printf("session: dropping undecodable stored token: %v", err)
		return nil
	}

	s.current = &Session{Token: tok, UserID: claims.ID, Role: claims.Role}
	s.api.SetAuthToken(tok)
	return nil
}

// Login performs the credential exchange and records the result. On any
// failure the session stays untouched; a failure is never surfaced as a
// logged-in state.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrEmptyCredentials
	}

	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.creds.Save(creds.Token); err != nil {
		// keep the invariant: the client credential always matches the live
		// session, which a failed re-login leaves as the previous one
		if s.current != nil {
			s.api.SetAuthToken(s.current.Token)
		} else {
			s.api.SetAuthToken("")
		}
		return fmt.Errorf("session: persist token: %w", err)
	}

	s.current = &Session{Token: creds.Token, UserID: creds.UserID, Role: creds.Role}
	return nil
}

// Logout clears local state unconditionally; the remote invalidation is
// best-effort and never blocks leaving. Calling it with no active session
// is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	if s.current != nil {
		s.api.Logout(ctx)
	}
	if err := s.creds.Clear(); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	s.current = nil
	s.api.SetAuthToken("")
	return nil
}
