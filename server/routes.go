package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	for _, h := range s.StdMiddleware() {
		s.app.Use(h)
	}

	s.register(fiber.MethodPost, RouteChat, s.RateLimitMiddleware(), s.ChatHandler())
	s.register(fiber.MethodGet, RouteHealth, s.HealthHandler())
	s.register(fiber.MethodGet, RouteMetrics, adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}
