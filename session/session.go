// Package session holds the signed-in identity and its credentials, and the manager
// that drives login, logout and hydration against the backend.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/tokenstore"
	"github.com/jrsteele09/go-dolar-client/users"
	"github.com/rs/zerolog/log"
)

// Session is the credential bundle plus the cached user, mirrored to a token store.
// It is safe for concurrent use and satisfies apiclient.TokenSource.
type Session struct {
	store tokenstore.Store

	mu           sync.RWMutex
	token        string
	refreshToken string
	userPass     string
	user         *users.User
}

// New returns an empty session backed by store.
func New(store tokenstore.Store) *Session {
	return &Session{store: store}
}

// Load returns a session primed with the persisted credentials. The cached user is
// left for InitializeAuth to hydrate.
func Load(ctx context.Context, store tokenstore.Store) (*Session, error) {
	s := New(store)
	var err error
	if s.token, _, err = store.Get(ctx, tokenstore.KeyToken); err != nil {
		return nil, errors.Wrapf(err, "load %s", tokenstore.KeyToken)
	}
	if s.refreshToken, _, err = store.Get(ctx, tokenstore.KeyRefreshToken); err != nil {
		return nil, errors.Wrapf(err, "load %s", tokenstore.KeyRefreshToken)
	}
	if s.userPass, _, err = store.Get(ctx, tokenstore.KeyUserPass); err != nil {
		return nil, errors.Wrapf(err, "load %s", tokenstore.KeyUserPass)
	}
	return s, nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) UserPass() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userPass
}

// User returns a copy of the cached user, or nil.
func (s *Session) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated holds iff both an access token and a user are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// StoreTokens persists and then adopts a new token pair. On a store failure the
// in-memory pair is left as it was and the persisted pair is rolled back to match it.
func (s *Session) StoreTokens(ctx context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, tokenstore.KeyToken, accessToken); err != nil {
		return errors.Wrapf(err, "persist %s", tokenstore.KeyToken)
	}
	if err := s.store.Set(ctx, tokenstore.KeyRefreshToken, refreshToken); err != nil {
		s.restoreLocked(ctx, tokenstore.KeyToken, s.token)
		return errors.Wrapf(err, "persist %s", tokenstore.KeyRefreshToken)
	}
	s.token, s.refreshToken = accessToken, refreshToken
	return nil
}

// restoreLocked puts a persisted key back to its in-memory value so the store never holds
// half of a token pair. Caller holds mu.
func (s *Session) restoreLocked(ctx context.Context, key tokenstore.Key, value string) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if value == "" {
		err = s.store.Remove(ctx, key)
	} else {
		err = s.store.Set(ctx, key, value)
	}
	if err != nil {
		log.Err(err).Str("key", string(key)).Msg("restoring persisted key")
	}
}

// SetUser replaces the cached user wholesale and persists it as JSON. nil removes it.
func (s *Session) SetUser(ctx context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setUserLocked(ctx, u)
}

func (s *Session) setUserLocked(ctx context.Context, u *users.User) error {
	if u == nil {
		s.user = nil
		return s.store.Remove(ctx, tokenstore.KeyUser)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return errors.Wrapf(err, "encode user")
	}
	if err := s.store.Set(ctx, tokenstore.KeyUser, string(raw)); err != nil {
		return errors.Wrapf(err, "persist %s", tokenstore.KeyUser)
	}
	s.user = u.Clone()
	return nil
}

// adoptUser sets the in-memory user without writing it back.
func (s *Session) adoptUser(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// updateUser applies fn to the cached user and persists the result. It reports false
// when there is no user.
func (s *Session) updateUser(ctx context.Context, fn func(u *users.User)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false, nil
	}
	u := s.user.Clone()
	fn(u)
	return true, s.setUserLocked(ctx, u)
}

// SetUserPass stores the cached password, or removes it when pass is empty.
func (s *Session) SetUserPass(ctx context.Context, pass string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pass == "" {
		if err := s.store.Remove(ctx, tokenstore.KeyUserPass); err != nil {
			return errors.Wrapf(err, "remove %s", tokenstore.KeyUserPass)
		}
	} else if err := s.store.Set(ctx, tokenstore.KeyUserPass, pass); err != nil {
		return errors.Wrapf(err, "persist %s", tokenstore.KeyUserPass)
	}
	s.userPass = pass
	return nil
}

// StoredUser returns the raw persisted user record.
func (s *Session) StoredUser(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx, tokenstore.KeyUser)
}

// Clear wipes memory and every persisted key. Memory is always cleared, even when the
// store fails. The store cleanup ignores ctx cancellation so a logout cannot leave
// credentials on disk. Calling it on a cleared session is a no-op.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.refreshToken, s.userPass, s.user = "", "", "", nil
	return tokenstore.RemoveAll(context.WithoutCancel(ctx), s.store)
}

// Expire is the forced logout run by the API client when a session cannot be renewed.
func (s *Session) Expire(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		log.Err(err).Msg("clearing expired session")
	}
}
