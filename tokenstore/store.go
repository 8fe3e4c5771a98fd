// Package tokenstore persists the session's key/value pairs. It plays the part browser
// local storage played for the web client: string values, no TTL, explicit removal.
package tokenstore

import (
	"context"
)

// Key names a persisted session field.
type Key string

// The persisted layout. Values are plain strings; KeyUser holds the JSON-encoded user.
const (
	KeyToken        Key = "token"
	KeyRefreshToken Key = "refreshToken"
	KeyUser         Key = "user"
	KeyUserPass     Key = "userPass"
)

// Keys lists every key the session writes, in clearing order.
var Keys = []Key{KeyToken, KeyRefreshToken, KeyUser, KeyUserPass}

// Store is a string key/value store. Get reports a missing key with ok == false and a
// nil error; errors are reserved for the backend failing.
type Store interface {
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	Set(ctx context.Context, key Key, value string) error
	Remove(ctx context.Context, key Key) error
}

// Closer is implemented by stores holding connections or file handles.
type Closer interface {
	Close() error
}

// RemoveAll removes every session key, returning the first error after trying them all.
func RemoveAll(ctx context.Context, s Store) error {
	var firstErr error
	for _, k := range Keys {
		if err := s.Remove(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
