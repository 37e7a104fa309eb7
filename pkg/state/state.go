// Package state persists the small keyed values the storefront keeps between
// runs: the bearer token, the serialized user, and the theme preference.
package state

import (
	"context"
	"errors"
)

// Well-known keys. The layout mirrors what the storefront has always
// persisted, so existing deployments keep their sessions.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyTheme = "theme"
)

// ErrNotFound reports a key with no stored value.
var ErrNotFound = errors.New("state: key not found")

// Store is a keyed string store with synchronous writes: once Set returns,
// a restart observes the value.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
