package authmodel

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Envelope is the optional wrapper some backend endpoints use.
type Envelope[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// DecodeEnvelope reads the envelope members of raw. It never fails: a payload that is
// not an object gives the zero Envelope, and a data member that does not decode as T
// leaves Data nil.
func DecodeEnvelope[T any](raw []byte) Envelope[T] {
	var env Envelope[T]
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return env
	}
	env.Success = res.Get("success").Type == gjson.True
	env.Message = res.Get("message").String()
	for _, e := range res.Get("errors").Array() {
		if msg := e.String(); msg != "" {
			env.Errors = append(env.Errors, msg)
		}
	}
	if data := res.Get("data"); data.IsObject() || data.IsArray() {
		var v T
		if err := json.Unmarshal([]byte(data.Raw), &v); err == nil {
			env.Data = &v
		}
	}
	return env
}

// Reason is the envelope's user facing failure text: the message, else the joined
// errors, else fallback.
func (e Envelope[T]) Reason(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, "; ")
	}
	return fallback
}

// Unwrap returns the "data" member of an object payload when it is truthy,
// otherwise the payload itself. It never fails; invalid JSON comes back unchanged.
func Unwrap(raw []byte) []byte {
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return raw
	}
	data := res.Get("data")
	if !Truthy(data) {
		return raw
	}
	return []byte(data.Raw)
}

// Truthy mirrors the loose truthiness the backend contract was written against:
// objects and arrays, non-empty strings, non-zero numbers and true.
func Truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.JSON:
		return true
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True:
		return true
	}
	return false
}

// Message extracts the first user facing message from an error payload.
func Message(raw []byte, fallback string) string {
	for _, path := range []string{"message", "data.message", "msg", "error", "title"} {
		if m := gjson.GetBytes(raw, path); m.Type == gjson.String && m.Str != "" {
			return m.Str
		}
	}
	return fallback
}
