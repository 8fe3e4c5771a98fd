// Package server is the chat proxy: a small HTTP service answering the assistant
// widget, plus health and metrics endpoints.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jrsteele09/go-dolar-client/chat"
	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string
	app       *fiber.App
	routes    []string
	config    config.Config
	responder chat.Responder
	limiters  *limiterRepo
	registry  *prometheus.Registry
	metrics   *metrics
}

type Option func(*Server)

// WithRegistry exposes extra collectors (for example the API client's) on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func New(cfg config.Config, responder chat.Responder, opts ...Option) *Server {
	s := &Server{
		env:       cfg.GetEnv(),
		config:    cfg,
		responder: responder,
		limiters:  newLimiterRepo(cfg.GetChatRatePerSecond(), 5),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)

	s.app = fiber.New(fiber.Config{
		AppName:               cfg.GetAppName(),
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.initRoutes()
	s.logRoutes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Str("responder", s.responder.Name()).Msg("chat proxy listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) register(method, path string, handlers ...fiber.Handler) {
	s.routes = append(s.routes, method+" "+path)
	s.app.Add(method, path, handlers...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		color, ok := methodColors[parts[0]]
		if !ok {
			color = Gray
		}
		log.Debug().Msg(fmt.Sprintf("[%s %-7s%s] %s", color, parts[0], ResetColor, parts[1]))
	}
}

// errorHandler renders every error as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Proxy error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
