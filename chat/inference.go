package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// UpstreamError is a non-2xx answer from the inference API. The proxy relays both.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("inference: status %d: %s", e.Status, e.Body)
}

// Inference forwards messages to a hosted text generation model.
type Inference struct {
	endpoint string
	client   *http.Client
}

// NewInference builds a client for <baseURL>/models/<model> authenticated with token.
// base, when non-nil, is the transport client the bearer is layered on.
func NewInference(baseURL, model, token string, base *http.Client) *Inference {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return &Inference{
		endpoint: strings.TrimRight(baseURL, "/") + "/models/" + model,
		client:   oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})),
	}
}

func (*Inference) Name() string { return "inference" }

func (i *Inference) Reply(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{"inputs": message})
	if err != nil {
		return "", errors.Wrap(err, "encode inference request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build inference request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "inference request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read inference response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("inference response is not json")
	}
	return NormalizeReply(body), nil
}

// NormalizeReply extracts the generated text: [0].generated_text of an array, the
// generated_text member of an object, a bare string, else the raw JSON.
func NormalizeReply(raw []byte) string {
	res := gjson.ParseBytes(raw)
	switch {
	case res.IsArray():
		if text := res.Get("0.generated_text"); text.Type == gjson.String && text.Str != "" {
			return text.Str
		}
	case res.IsObject():
		if text := res.Get("generated_text"); text.Exists() {
			return text.String()
		}
	case res.Type == gjson.String:
		return res.Str
	}
	return strings.TrimSpace(res.Raw)
}
