// Package metadata is the client's local key/value table. The session layer
// keeps the cached credentials here, one row per Key.
package metadata

import (
	"context"
)

type Key string

const (
	KeyAccountID    Key = "account_id"
	KeyUserName     Key = "username"
	KeyAccessToken  Key = "access_token"
	KeyRefreshToken Key = "refresh_token"
)

// CredentialKeys lists every key that makes up a cached login.
var CredentialKeys = []Key{KeyAccountID, KeyUserName, KeyAccessToken, KeyRefreshToken}

// Repository stores string values by key.
type Repository interface {
	// Get returns common.ErrorNotFound for a missing key.
	Get(ctx context.Context, key Key) (string, error)
	// Load returns the present keys among keys; missing ones are left out.
	Load(ctx context.Context, keys ...Key) (map[Key]string, error)
	// Store writes all values in one transaction. An empty value removes
	// the key.
	Store(ctx context.Context, values map[Key]string) error
	// Delete removes keys in one transaction. Missing keys are not an error.
	Delete(ctx context.Context, keys ...Key) error
}
