// Package auth mints and verifies the JWT access and refresh tokens and
// carries the verified identity through request contexts.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningConfig is the explicit signing configuration handed to the token
// manager at construction. Access and refresh tokens use distinct secrets,
// so a refresh token never verifies as an access token.
type SigningConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Validate reports configuration that would produce unusable tokens.
func (c SigningConfig) Validate() error {
	switch {
	case len(c.AccessSecret) == 0:
		return errors.New("access token secret is empty")
	case len(c.RefreshSecret) == 0:
		return errors.New("refresh token secret is empty")
	case string(c.AccessSecret) == string(c.RefreshSecret):
		return errors.New("access and refresh secrets must differ")
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0:
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

// Claims holds the registered claims plus the subject account id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

type TokenManager struct {
	cfg SigningConfig
	now func() time.Time
}

type Option func(*TokenManager)

// WithClock replaces time.Now for both minting and verification.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(cfg SigningConfig, opts ...Option) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &TokenManager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// IssueAccess mints a short-lived access token for userID.
func (m *TokenManager) IssueAccess(userID string) (string, error) {
	return m.generate(userID, m.cfg.AccessSecret, m.cfg.AccessTTL)
}

// IssueRefresh mints a long-lived refresh token for userID.
func (m *TokenManager) IssueRefresh(userID string) (string, error) {
	return m.generate(userID, m.cfg.RefreshSecret, m.cfg.RefreshTTL)
}

// IssuePair mints both tokens for the same subject.
func (m *TokenManager) IssuePair(userID string) (access string, refresh string, err error) {
	access, err = m.IssueAccess(userID)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.IssueRefresh(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseAccess verifies signature and expiry of an access token and returns
// its subject. Expired tokens yield common.ErrTokenExpired, anything else
// that fails yields common.ErrInvalidToken.
func (m *TokenManager) ParseAccess(token string) (string, error) {
	return m.parse(token, m.cfg.AccessSecret)
}

// ParseRefresh is ParseAccess for refresh tokens.
func (m *TokenManager) ParseRefresh(token string) (string, error) {
	return m.parse(token, m.cfg.RefreshSecret)
}

func (m *TokenManager) generate(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(secret)
}

func (m *TokenManager) parse(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
