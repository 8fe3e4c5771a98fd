package users

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/tidwall/gjson"
)

// LastUpdateLayout is the timestamp format the backend uses for userLastUpdate.
const LastUpdateLayout = time.RFC3339

// User is the identity and balance snapshot returned by the backend.
type User struct {
	ID         string  `json:"userId"`                     // Unique identifier
	Name       string  `json:"userName"`                   // Display name
	Email      string  `json:"userEmail"`                  // Login email
	Pesos      float64 `json:"userPesos"`                  // ARS balance
	Dollars    float64 `json:"userDolares"`                // USD balance
	LastUpdate string  `json:"userLastUpdate"`             // Last balance update, RFC 3339
	Role       string  `json:"userRol,omitempty"`          // Role name
	StatusID   int     `json:"userEstadoId,omitempty"`     // Account status id
	StatusName string  `json:"userEstadoNombre,omitempty"` // Account status label
	Selectable bool    `json:"userSeleccionable,omitempty"`
	Code       string  `json:"userCodigo,omitempty"`
}

// Clone returns a copy so callers never share the session's cached user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SetBalance replaces both balances and stamps the update time.
func (u *User) SetBalance(pesos, dollars float64, now time.Time) {
	u.Pesos = pesos
	u.Dollars = dollars
	u.LastUpdate = now.UTC().Format(LastUpdateLayout)
}

// Parse decodes a user from either a bare record or a {"data": record} envelope.
// It returns nil, nil when the payload holds no object.
func Parse(raw []byte) (*User, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.Wrapf(errors.ErrCorruptState, "invalid user json")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return nil, nil
	}
	if data := res.Get("data"); data.IsObject() {
		res = data
	}
	var u User
	if err := json.Unmarshal([]byte(res.Raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ParseList decodes a list of users, accepting the {"data": [...]} envelope.
func ParseList(raw []byte) ([]*User, error) {
	res := gjson.ParseBytes(raw)
	if data := res.Get("data"); res.IsObject() && data.IsArray() {
		res = data
	}
	if !res.IsArray() {
		return nil, nil
	}
	var list []*User
	if err := json.Unmarshal([]byte(res.Raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// EqualEmail compares emails case-insensitively.
func EqualEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
