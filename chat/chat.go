// Package chat answers the assistant widget: a hosted model when a credential is
// configured, canned replies otherwise.
package chat

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-dolar-client/internal/config"
)

// Responder produces a reply to one user message.
type Responder interface {
	Name() string
	Reply(ctx context.Context, message string) (string, error)
}

// NewFromConfig picks the inference responder when HF_TOKEN is set, the local one otherwise.
func NewFromConfig(cfg config.ChatConfig, base *http.Client) Responder {
	if token := cfg.GetHFToken(); token != "" {
		return NewInference(cfg.GetInferenceURL(), cfg.GetHFModel(), token, base)
	}
	return NewLocal()
}
