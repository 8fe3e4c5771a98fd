package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jrsteele09/go-dolar-client/chat"
	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/jrsteele09/go-dolar-client/internal/logging"
	"github.com/jrsteele09/go-dolar-client/server"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	reply string
	err   error
}

func (stubResponder) Name() string { return "stub" }

func (s stubResponder) Reply(context.Context, string) (string, error) {
	return s.reply, s.err
}

func newServer(t *testing.T, responder chat.Responder) *fiber.App {
	t.Helper()
	logging.Discard()
	t.Setenv("ENV", "test")
	return server.New(config.New(), responder).App()
}

func postChat(t *testing.T, app *fiber.App, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, server.RouteChat, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]string{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestChatHandler(t *testing.T) {
	t.Run("local greeting", func(t *testing.T) {
		app := newServer(t, chat.NewLocal())
		status, body := postChat(t, app, `{"message":"Hola Botito"}`)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, body["reply"], "Botito")
	})

	t.Run("missing message", func(t *testing.T) {
		app := newServer(t, chat.NewLocal())
		status, body := postChat(t, app, `{}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Missing message", body["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		app := newServer(t, chat.NewLocal())
		status, body := postChat(t, app, `not json`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Missing message", body["error"])
	})

	t.Run("upstream error is relayed", func(t *testing.T) {
		app := newServer(t, stubResponder{err: &chat.UpstreamError{Status: http.StatusServiceUnavailable, Body: "model loading"}})
		status, body := postChat(t, app, `{"message":"hi"}`)
		require.Equal(t, http.StatusServiceUnavailable, status)
		require.Equal(t, "model loading", body["error"])
	})

	t.Run("other errors are a proxy error", func(t *testing.T) {
		app := newServer(t, stubResponder{err: errors.New("dial tcp: refused")})
		status, body := postChat(t, app, `{"message":"hi"}`)
		require.Equal(t, http.StatusInternalServerError, status)
		require.Equal(t, "Proxy error", body["error"])
	})
}

func TestHealthAndMetrics(t *testing.T) {
	app := newServer(t, stubResponder{reply: "ok"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ := postChat(t, app, `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), `dolarito_chat_requests_total{responder="stub",status="200"} 1`)
}

func TestCors(t *testing.T) {
	logging.Discard()

	t.Run("allowed origin is echoed", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "https://app.example")
		app := newServer(t, stubResponder{})
		req := httptest.NewRequest(http.MethodOptions, server.RouteChat, nil)
		req.Header.Set("Origin", "https://app.example")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		require.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "https://app.example")
		app := newServer(t, stubResponder{})
		req := httptest.NewRequest(http.MethodOptions, server.RouteChat, nil)
		req.Header.Set("Origin", "https://evil.example")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "*")
		app := newServer(t, stubResponder{})
		req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
		req.Header.Set("Origin", "https://anyone.example")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestID(t *testing.T) {
	app := newServer(t, stubResponder{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	t.Setenv("CHAT_REQUESTS_PER_SECOND", "0.001")
	app := newServer(t, stubResponder{reply: "ok"})

	for i := 0; i < 5; i++ {
		status, _ := postChat(t, app, `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, status, "request %d", i)
	}
	status, body := postChat(t, app, `{"message":"hi"}`)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "Too many requests", body["error"])
}

func TestRateLimitDisabled(t *testing.T) {
	t.Setenv("CHAT_REQUESTS_PER_SECOND", "0")
	app := newServer(t, stubResponder{reply: "ok"})

	for i := 0; i < 20; i++ {
		status, _ := postChat(t, app, `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, status)
	}
}
