package session_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-dolar-client/apiclient"
	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/internal/utils"
	"github.com/jrsteele09/go-dolar-client/notify"
	"github.com/jrsteele09/go-dolar-client/session"
	"github.com/jrsteele09/go-dolar-client/tokenstore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/memstore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/redisstore"
	"github.com/jrsteele09/go-dolar-client/transactions/fakeledger"
	"github.com/jrsteele09/go-dolar-client/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var _ apiclient.TokenSource = (*session.Session)(nil)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// scriptedAPI answers Login and GetUserByEmail with canned values.
type scriptedAPI struct {
	loginResp *authmodel.AuthResponse
	loginErr  error
	user      *users.User
	userErr   error
	lookups   []string
}

func (s *scriptedAPI) Login(context.Context, authmodel.AuthRequest) (*authmodel.AuthResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *scriptedAPI) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	s.lookups = append(s.lookups, email)
	return s.user, s.userErr
}

func newManager(t *testing.T, store *memstore.MemStore, api session.AuthAPI) (*session.Manager, *notify.Recorder) {
	t.Helper()
	s, err := session.Load(context.Background(), store)
	require.NoError(t, err)
	rec := &notify.Recorder{}
	return session.NewManager(s, api, session.WithNotifier(rec), session.WithNowTime(func() time.Time { return fixedNow })), rec
}

// requireInvariant checks that IsAuthenticated holds iff both token and user are present.
func requireInvariant(t *testing.T, m *session.Manager) {
	t.Helper()
	s := m.Session()
	require.Equal(t, s.AccessToken() != "" && s.User() != nil, m.IsAuthenticated())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists tokens password and user", func(t *testing.T) {
		store := memstore.New()
		m, rec := newManager(t, store, fakeledger.NewDemo(func() time.Time { return fixedNow }))

		require.True(t, m.Login(ctx, "demo@dolarito.app", "demo"))
		requireInvariant(t, m)
		require.True(t, m.IsAuthenticated())
		require.False(t, m.IsLoading())
		require.Equal(t, "demo-user", m.User().ID)

		snap := store.Snapshot()
		require.Equal(t, m.Session().AccessToken(), snap[tokenstore.KeyToken])
		require.NotEmpty(t, snap[tokenstore.KeyRefreshToken])
		require.Equal(t, "demo", snap[tokenstore.KeyUserPass])
		require.Contains(t, snap[tokenstore.KeyUser], `"userId":"demo-user"`)
		require.Equal(t, notify.LevelSuccess, rec.Last().Level)
	})

	t.Run("resultado false leaves stored tokens untouched", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken:        "old-token",
			tokenstore.KeyRefreshToken: "old-refresh",
		})
		api := &scriptedAPI{loginResp: &authmodel.AuthResponse{Resultado: false, Msg: "Credenciales inválidas"}}
		m, rec := newManager(t, store, api)

		require.False(t, m.Login(ctx, "ana@example.com", "bad"))
		requireInvariant(t, m)
		require.Equal(t, "old-token", m.Session().AccessToken())
		require.Equal(t, "old-refresh", m.Session().RefreshToken())
		require.Equal(t, map[tokenstore.Key]string{
			tokenstore.KeyToken:        "old-token",
			tokenstore.KeyRefreshToken: "old-refresh",
		}, store.Snapshot())
		require.Equal(t, notify.Message{Level: notify.LevelError, Text: "Credenciales inválidas"}, rec.Last())
		require.Empty(t, api.lookups)
	})

	t.Run("resultado false without message", func(t *testing.T) {
		m, rec := newManager(t, memstore.New(), &scriptedAPI{loginResp: &authmodel.AuthResponse{}})
		require.False(t, m.Login(ctx, "ana@example.com", "bad"))
		require.Equal(t, "Error al iniciar sesión", rec.Last().Text)
	})

	t.Run("transport error", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{tokenstore.KeyToken: "old-token"})
		m, rec := newManager(t, store, &scriptedAPI{loginErr: errors.ErrNetwork})
		require.False(t, m.Login(ctx, "ana@example.com", "pw"))
		require.Equal(t, "old-token", m.Session().AccessToken())
		require.Equal(t, notify.LevelError, rec.Last().Level)
	})

	t.Run("user lookup failure keeps tokens", func(t *testing.T) {
		store := memstore.New()
		api := &scriptedAPI{
			loginResp: &authmodel.AuthResponse{Resultado: true, Token: "T", RefreshToken: "R"},
			userErr:   errors.ErrNetwork,
		}
		m, _ := newManager(t, store, api)

		require.True(t, m.Login(ctx, "ana@example.com", ""))
		requireInvariant(t, m)
		require.False(t, m.IsAuthenticated())
		require.Nil(t, m.User())
		require.Equal(t, "T", m.Session().AccessToken())
		_, hasPass, _ := store.Get(ctx, tokenstore.KeyUserPass)
		require.False(t, hasPass)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	m, rec := newManager(t, store, fakeledger.NewDemo(func() time.Time { return fixedNow }))
	require.True(t, m.Login(ctx, "demo@dolarito.app", "demo"))

	m.Logout(ctx)
	requireInvariant(t, m)
	first := store.Snapshot()
	require.Empty(t, first)

	m.Logout(ctx)
	requireInvariant(t, m)
	require.Equal(t, first, store.Snapshot())
	require.False(t, m.IsAuthenticated())
	require.Empty(t, m.Session().AccessToken())
	require.Empty(t, m.Session().RefreshToken())
	require.Empty(t, m.Session().UserPass())
	require.Equal(t, notify.Message{Level: notify.LevelInfo, Text: "Sesión cerrada"}, rec.Last())
}

func TestInitializeAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("hydrates the stored user", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken: "T",
			tokenstore.KeyUser:  `{"userId":"u1","userEmail":"ana@example.com"}`,
		})
		m, _ := newManager(t, store, &scriptedAPI{})
		m.InitializeAuth(ctx)
		requireInvariant(t, m)
		require.True(t, m.IsAuthenticated())
		require.Equal(t, "u1", m.User().ID)
	})

	t.Run("malformed user clears everything", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken:        "T",
			tokenstore.KeyRefreshToken: "R",
			tokenstore.KeyUserPass:     "pw",
			tokenstore.KeyUser:         `{"userId":`,
		})
		m, _ := newManager(t, store, &scriptedAPI{})
		m.InitializeAuth(ctx)
		requireInvariant(t, m)
		require.False(t, m.IsAuthenticated())
		require.Empty(t, m.Session().AccessToken())
		require.Empty(t, m.Session().RefreshToken())
		require.Empty(t, store.Snapshot())
	})

	t.Run("user without token stays logged out", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{tokenstore.KeyUser: `{"userId":"u1"}`})
		m, _ := newManager(t, store, &scriptedAPI{})
		m.InitializeAuth(ctx)
		require.Nil(t, m.User())
		require.Len(t, store.Snapshot(), 1)
	})
}

func TestFetchUserInfoKeepsTokensOnBadData(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWith(map[tokenstore.Key]string{
		tokenstore.KeyToken: "T",
		tokenstore.KeyUser:  `not json`,
	})
	m, _ := newManager(t, store, &scriptedAPI{})
	m.FetchUserInfo(ctx)
	requireInvariant(t, m)
	require.Nil(t, m.User())
	require.Equal(t, "T", m.Session().AccessToken())
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()
	ledger := fakeledger.NewDemo(func() time.Time { return fixedNow })

	t.Run("email recovered from token claims", func(t *testing.T) {
		resp, err := ledger.Login(ctx, authmodel.AuthRequest{UserEmail: "demo@dolarito.app", UserPass: "demo"})
		require.NoError(t, err)
		store := memstore.NewWith(map[tokenstore.Key]string{tokenstore.KeyToken: resp.Token})
		m, _ := newManager(t, store, ledger)

		u := m.RefreshUser(ctx, "")
		require.NotNil(t, u)
		require.Equal(t, "demo-user", u.ID)
		require.True(t, m.IsAuthenticated())
	})

	t.Run("undecodable token yields nil", func(t *testing.T) {
		api := &scriptedAPI{}
		m, _ := newManager(t, memstore.NewWith(map[tokenstore.Key]string{tokenstore.KeyToken: "opaque"}), api)
		require.Nil(t, m.RefreshUser(ctx, ""))
		require.Empty(t, api.lookups)
	})

	t.Run("lookup failure yields nil and keeps the cached user", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken: "T",
			tokenstore.KeyUser:  `{"userId":"u1"}`,
		})
		m, _ := newManager(t, store, &scriptedAPI{userErr: errors.ErrNotFound})
		m.InitializeAuth(ctx)
		require.Nil(t, m.RefreshUser(ctx, "ana@example.com"))
		require.Equal(t, "u1", m.User().ID)
	})

	t.Run("overwrites wholesale", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken: "T",
			tokenstore.KeyUser:  `{"userId":"u1","userRol":"admin","userPesos":5}`,
		})
		m, _ := newManager(t, store, &scriptedAPI{user: &users.User{ID: "u1", Pesos: 7}})
		m.InitializeAuth(ctx)
		u := m.RefreshUser(ctx, "ana@example.com")
		require.Equal(t, &users.User{ID: "u1", Pesos: 7}, u)
		require.Empty(t, m.User().Role)
	})
}

func TestUpdateUserBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("local only and persisted", func(t *testing.T) {
		store := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken: "T",
			tokenstore.KeyUser:  `{"userId":"u1","userPesos":1,"userDolares":2}`,
		})
		api := &scriptedAPI{}
		m, _ := newManager(t, store, api)
		m.InitializeAuth(ctx)

		require.NoError(t, m.UpdateUserBalance(ctx, 100, 3.5))
		u := m.User()
		require.Equal(t, 100.0, u.Pesos)
		require.Equal(t, 3.5, u.Dollars)
		require.Equal(t, "2024-06-01T10:00:00Z", u.LastUpdate)
		require.Contains(t, store.Snapshot()[tokenstore.KeyUser], `"userPesos":100`)
		require.Empty(t, api.lookups)
	})

	t.Run("no user is a no-op", func(t *testing.T) {
		store := memstore.New()
		m, _ := newManager(t, store, &scriptedAPI{})
		require.NoError(t, m.UpdateUserBalance(ctx, 1, 1))
		require.Nil(t, m.User())
		require.Empty(t, store.Snapshot())
	})
}

func TestSetUserPass(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	m, _ := newManager(t, store, &scriptedAPI{})

	require.NoError(t, m.SetUserPass(ctx, utils.Ptr("secret")))
	require.Equal(t, "secret", store.Snapshot()[tokenstore.KeyUserPass])

	require.NoError(t, m.SetUserPass(ctx, nil))
	_, ok := store.Snapshot()[tokenstore.KeyUserPass]
	require.False(t, ok)
	require.Empty(t, m.Session().UserPass())
}

// Two consecutive 401s on one request: exactly one refresh, then a cleared session.
func TestClientExpiresSessionAfterRejectedRetry(t *testing.T) {
	ctx := context.Background()
	var refreshes, calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiclient.RouteRefresh {
			refreshes.Add(1)
			_, _ = w.Write([]byte(`{"token":"T2","refreshToken":"R2","resultado":true}`))
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := memstore.NewWith(map[tokenstore.Key]string{
		tokenstore.KeyToken:        "T",
		tokenstore.KeyRefreshToken: "R",
		tokenstore.KeyUser:         `{"userId":"u1"}`,
	})
	s, err := session.Load(ctx, store)
	require.NoError(t, err)
	var redirected atomic.Bool
	client, err := apiclient.New(srv.URL, s, apiclient.WithSessionExpiredHandler(func() { redirected.Store(true) }))
	require.NoError(t, err)
	m := session.NewManager(s, client, session.WithNotifier(&notify.Recorder{}))
	m.InitializeAuth(ctx)
	require.True(t, m.IsAuthenticated())

	_, err = client.Get(ctx, "/Usuario/Lista")
	require.True(t, errors.Is(err, errors.ErrSessionExpired))
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, int32(2), calls.Load())
	require.True(t, redirected.Load())
	requireInvariant(t, m)
	require.False(t, m.IsAuthenticated())
	require.Empty(t, store.Snapshot())
}

func redisSession(t *testing.T, values map[tokenstore.Key]string) (*session.Session, *redisstore.RedisStore) {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := redisstore.New(client, "ana")
	for k, v := range values {
		require.NoError(t, store.Set(ctx, k, v))
	}
	s, err := session.Load(ctx, store)
	require.NoError(t, err)
	return s, store
}

func requireStored(t *testing.T, store tokenstore.Store, key tokenstore.Key, want string) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, want != "", ok)
	require.Equal(t, want, v)
}

// A caller timing out during the refresh is not a session expiry.
func TestClientKeepsSessionWhenCallerGivesUpDuringRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiclient.RouteRefresh {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{"token":"new","refreshToken":"R2","resultado":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, store := redisSession(t, map[tokenstore.Key]string{
		tokenstore.KeyToken:        "old",
		tokenstore.KeyRefreshToken: "R",
		tokenstore.KeyUser:         `{"userEmail":"a@b"}`,
	})
	var redirected atomic.Bool
	client, err := apiclient.New(srv.URL, s, apiclient.WithSessionExpiredHandler(func() { redirected.Store(true) }))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, "/Usuario/Lista")
	require.Error(t, err)
	require.False(t, errors.Is(err, errors.ErrSessionExpired))
	require.False(t, redirected.Load())

	require.Equal(t, "old", s.AccessToken())
	requireStored(t, store, tokenstore.KeyToken, "old")
	requireStored(t, store, tokenstore.KeyRefreshToken, "R")
}

func TestLogoutClearsStoreWithCancelledContext(t *testing.T) {
	s, store := redisSession(t, map[tokenstore.Key]string{
		tokenstore.KeyToken:        "old",
		tokenstore.KeyRefreshToken: "R",
		tokenstore.KeyUser:         `{"userEmail":"a@b"}`,
		tokenstore.KeyUserPass:     "secret",
	})
	m := session.NewManager(s, &scriptedAPI{}, session.WithNotifier(&notify.Recorder{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Logout(ctx)

	require.Empty(t, s.AccessToken())
	for _, key := range tokenstore.Keys {
		requireStored(t, store, key, "")
	}

	reloaded, err := session.Load(context.Background(), store)
	require.NoError(t, err)
	require.Empty(t, reloaded.AccessToken())
}

func TestExpireClearsStoreWithCancelledContext(t *testing.T) {
	s, store := redisSession(t, map[tokenstore.Key]string{
		tokenstore.KeyToken:        "old",
		tokenstore.KeyRefreshToken: "R",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Expire(ctx)

	requireStored(t, store, tokenstore.KeyToken, "")
	requireStored(t, store, tokenstore.KeyRefreshToken, "")
}

// failingStore rejects writes to one key.
type failingStore struct {
	*memstore.MemStore
	failKey tokenstore.Key
}

func (f failingStore) Set(ctx context.Context, key tokenstore.Key, value string) error {
	if key == f.failKey {
		return fmt.Errorf("write %s: disk full", key)
	}
	return f.MemStore.Set(ctx, key, value)
}

func TestStoreTokensRollsBackHalfWrittenPair(t *testing.T) {
	ctx := context.Background()

	t.Run("previous pair restored", func(t *testing.T) {
		mem := memstore.NewWith(map[tokenstore.Key]string{
			tokenstore.KeyToken:        "T1",
			tokenstore.KeyRefreshToken: "R1",
		})
		s, err := session.Load(ctx, failingStore{MemStore: mem, failKey: tokenstore.KeyRefreshToken})
		require.NoError(t, err)

		err = s.StoreTokens(ctx, "T2", "R2")
		require.Error(t, err)
		require.Equal(t, "T1", s.AccessToken())
		require.Equal(t, "R1", s.RefreshToken())
		require.Equal(t, map[tokenstore.Key]string{
			tokenstore.KeyToken:        "T1",
			tokenstore.KeyRefreshToken: "R1",
		}, mem.Snapshot())
	})

	t.Run("no previous pair", func(t *testing.T) {
		mem := memstore.New()
		s := session.New(failingStore{MemStore: mem, failKey: tokenstore.KeyRefreshToken})

		require.Error(t, s.StoreTokens(ctx, "T2", "R2"))
		require.Empty(t, s.AccessToken())
		require.Empty(t, mem.Snapshot())
	})
}
