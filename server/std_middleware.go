package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// StdMiddleware is applied to every route, outermost first.
func (s *Server) StdMiddleware() []fiber.Handler {
	return []fiber.Handler{
		recover.New(recover.Config{EnableStackTrace: s.env == "DEV"}),
		RequestIDMiddleware(),
		s.LoggingMiddleware(),
		s.CorsMiddleware(),
	}
}

// RequestIDMiddleware keeps the caller's X-Request-ID or assigns a new one.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDHeader, reqID)
		return c.Next()
	}
}

func (s *Server) LoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Interface("requestId", c.Locals(requestIDHeader)).
			Msg("http request")
		return err
	}
}

// CorsMiddleware echoes an allowed origin with credentials, or answers "*" without
// credentials when the wildcard is configured. Other origins get no CORS headers.
func (s *Server) CorsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		allowedOrigins := s.config.GetAllowedOrigins()
		isAllowed := allowedOrigins.IsAllowedOrigin(origin)
		isWildcard := allowedOrigins.IsAllowedOrigin("*")

		switch {
		case isAllowed:
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
			c.Vary(fiber.HeaderOrigin)
		case isWildcard:
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		}

		if c.Method() == fiber.MethodOptions {
			if isAllowed || isWildcard {
				c.Set(fiber.HeaderAccessControlAllowMethods, s.config.GetAllowedMethods())
				c.Set(fiber.HeaderAccessControlAllowHeaders, s.config.GetAllowedHeaders())
				c.Set(fiber.HeaderAccessControlMaxAge, strconv.Itoa(86400))
			}
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

// RateLimitMiddleware throttles per client IP.
func (s *Server) RateLimitMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.limiters.Allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		}
		return c.Next()
	}
}
