package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jrsteele09/go-dolar-client/chat"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler answers {"message"} with {"reply"}. Upstream failures keep the upstream
// status and text; anything else is a 500 "Proxy error".
func (s *Server) ChatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil || req.Message == "" {
			s.metrics.observeChat(s.responder.Name(), fiber.StatusBadRequest, 0)
			return fiber.NewError(fiber.StatusBadRequest, "Missing message")
		}

		start := time.Now()
		reply, err := s.responder.Reply(c.UserContext(), req.Message)
		elapsed := time.Since(start)
		if err != nil {
			var upstream *chat.UpstreamError
			if errors.As(err, &upstream) {
				s.metrics.observeChat(s.responder.Name(), upstream.Status, elapsed)
				return c.Status(upstream.Status).JSON(fiber.Map{"error": upstream.Body})
			}
			log.Err(err).Str("responder", s.responder.Name()).Msg("chat proxy error")
			s.metrics.observeChat(s.responder.Name(), fiber.StatusInternalServerError, elapsed)
			return fiber.NewError(fiber.StatusInternalServerError, "Proxy error")
		}
		s.metrics.observeChat(s.responder.Name(), fiber.StatusOK, elapsed)
		return c.JSON(chatResponse{Reply: reply})
	}
}

func (s *Server) HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "responder": s.responder.Name()})
	}
}
