// Package models holds the server-side persistent records.
package models

import "time"

// Account is the credential-store record consumed by the auth core.
//
// RefreshToken is nil when no session can be renewed (never logged in, or
// logged out). A non-nil value is the single refresh token most recently
// issued; each login overwrites it.
type Account struct {
	ID           string
	UserName     string
	Name         string
	Surname      string
	Email        string
	PasswordHash []byte
	RefreshToken *string
	CreatedAt    time.Time
}
