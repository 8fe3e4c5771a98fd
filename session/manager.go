package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/internal/utils"
	"github.com/jrsteele09/go-dolar-client/notify"
	"github.com/jrsteele09/go-dolar-client/token/jwt"
	"github.com/jrsteele09/go-dolar-client/users"
	"github.com/rs/zerolog/log"
)

const (
	msgLoginOK     = "¡Inicio de sesión exitoso!"
	msgLoginFailed = "Error al iniciar sesión"
	msgLoggedOut   = "Sesión cerrada"
)

// AuthAPI is the part of the backend the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, credentials authmodel.AuthRequest) (*authmodel.AuthResponse, error)
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
}

// Manager orchestrates the session: login, logout, hydration and user refreshes.
// Failures stop here and come back as bool or nil results plus a notification.
type Manager struct {
	session  *Session
	api      AuthAPI
	notifier notify.Notifier
	nowTime  func() time.Time
	loading  atomic.Int32
}

type ManagerOption func(*Manager)

func WithNotifier(n notify.Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithNowTime sets the clock used for balance timestamps (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(s *Session, api AuthAPI, opts ...ManagerOption) *Manager {
	m := &Manager{
		session:  s,
		api:      api,
		notifier: notify.LogNotifier{},
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Session() *Session { return m.session }

func (m *Manager) IsAuthenticated() bool { return m.session.IsAuthenticated() }

func (m *Manager) User() *users.User { return m.session.User() }

// HasToken reports whether an access token is held, authenticated or not.
func (m *Manager) HasToken() bool { return m.session.AccessToken() != "" }

// IsLoading reports whether a login is in flight.
func (m *Manager) IsLoading() bool { return m.loading.Load() > 0 }

// Login authenticates and, on success, persists the token pair and the password, then
// looks the user up by email. A failed lookup is logged and leaves the user nil; the
// login still succeeds.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	m.loading.Add(1)
	defer m.loading.Add(-1)

	resp, err := m.api.Login(ctx, authmodel.AuthRequest{UserEmail: email, UserPass: password})
	if err != nil {
		log.Err(err).Str("email", email).Msg("login request failed")
		m.notifier.Error(failureMessage(err, msgLoginFailed))
		return false
	}
	if !resp.Resultado {
		m.notifier.Error(firstNonEmpty(resp.Msg, msgLoginFailed))
		return false
	}

	if err := m.session.StoreTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		log.Err(err).Msg("persisting tokens after login")
		m.notifier.Error(msgLoginFailed)
		return false
	}
	if password != "" {
		if err := m.session.SetUserPass(ctx, password); err != nil {
			log.Err(err).Msg("persisting password after login")
		}
	}
	if err := m.session.SetUser(ctx, nil); err != nil {
		log.Err(err).Msg("dropping previous user")
	}

	u, err := m.api.GetUserByEmail(ctx, email)
	switch {
	case err != nil:
		log.Err(err).Str("email", email).Msg("fetching user after login")
	case u == nil:
		log.Warn().Str("email", email).Msg("no user record after login")
	default:
		if err := m.session.SetUser(ctx, u); err != nil {
			log.Err(err).Msg("persisting user after login")
		}
	}

	m.notifier.Success(msgLoginOK)
	return true
}

// Logout clears the session in memory and in the store. It is idempotent.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.session.Clear(ctx); err != nil {
		log.Err(err).Msg("clearing stored session")
	}
	m.notifier.Info(msgLoggedOut)
}

// InitializeAuth hydrates the cached user from the store when both a stored user and
// an access token exist. A stored user that does not parse as a user record forces a
// full logout.
func (m *Manager) InitializeAuth(ctx context.Context) {
	if m.session.AccessToken() == "" {
		return
	}
	raw, ok, err := m.session.StoredUser(ctx)
	if err != nil {
		log.Err(err).Msg("reading stored user")
		return
	}
	if !ok || raw == "" {
		return
	}
	u, err := users.Parse([]byte(raw))
	if err != nil || u == nil {
		log.Error().Err(errors.Wrapf(errors.ErrCorruptState, "stored user")).Msg("forcing logout")
		m.Logout(ctx)
		return
	}
	m.session.adoptUser(u)
}

// FetchUserInfo re-reads the stored user while a token exists. Unlike InitializeAuth a
// malformed record only drops the cached user and keeps the tokens.
func (m *Manager) FetchUserInfo(ctx context.Context) {
	if m.session.AccessToken() == "" {
		return
	}
	raw, ok, err := m.session.StoredUser(ctx)
	if err != nil || !ok || raw == "" {
		if err != nil {
			log.Err(err).Msg("reading stored user")
		}
		return
	}
	u, err := users.Parse([]byte(raw))
	if err != nil {
		log.Err(err).Msg("parsing stored user")
	}
	m.session.adoptUser(u)
}

// RefreshUser re-fetches the user by email and replaces the cached copy. With no email
// it falls back to the access token's unverified claims. It returns nil on any failure.
func (m *Manager) RefreshUser(ctx context.Context, email string) *users.User {
	if email == "" {
		email = jwt.DecodeClaims(m.session.AccessToken()).Email()
	}
	if email == "" {
		return nil
	}
	u, err := m.api.GetUserByEmail(ctx, email)
	if err != nil {
		log.Err(err).Str("email", email).Msg("refreshing user")
		return nil
	}
	if u == nil {
		return nil
	}
	if err := m.session.SetUser(ctx, u); err != nil {
		log.Err(err).Msg("persisting refreshed user")
		return nil
	}
	return u.Clone()
}

// UpdateUserBalance sets the cached balances and stamps the update time. It is local
// only: the backend must already hold the change. Without a user it does nothing.
func (m *Manager) UpdateUserBalance(ctx context.Context, pesos, dollars float64) error {
	_, err := m.session.updateUser(ctx, func(u *users.User) {
		u.SetBalance(pesos, dollars, m.nowTime())
	})
	return err
}

// SetUserPass sets the cached password; nil clears it.
func (m *Manager) SetUserPass(ctx context.Context, pass *string) error {
	return m.session.SetUserPass(ctx, utils.Value(pass))
}

type messager interface {
	Message() string
}

func failureMessage(err error, fallback string) string {
	var m messager
	if errors.As(err, &m) {
		return firstNonEmpty(m.Message(), fallback)
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
