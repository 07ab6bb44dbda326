// Package services contains the client's application services. AuthService
// drives the account operations of the CLI and keeps the session credentials.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/client/client"
	"github.com/dmitrijs2005/socialnet/internal/client/session"
	"github.com/dmitrijs2005/socialnet/internal/common"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines authentication operations for the CLI.
//
// Protected operations run through the session, so an expired access token is
// renewed and the call replayed without the caller noticing. When renewal is
// impossible they fail with session.ErrSessionEnded and the cached
// credentials are gone.
type AuthService interface {
	Restore(ctx context.Context) error
	Register(ctx context.Context, in client.RegisterInput, password []byte) (string, error)
	Login(ctx context.Context, userName string, password []byte) error
	WhoAmI(ctx context.Context) (string, error)
	ChangePassword(ctx context.Context, current, next []byte) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	UserName() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client  client.Client
	session *session.Session
}

// NewAuthService binds the API client to a session persisted in store.
func NewAuthService(c client.Client, store session.Store) AuthService {
	s := session.New(store, c.Refresh, session.WithRejection(func(err error) bool {
		return errors.Is(err, client.ErrForbidden)
	}))
	return &authService{client: c, session: s}
}

// Restore loads the credentials left by a previous run.
func (a *authService) Restore(ctx context.Context) error {
	return a.session.Load(ctx)
}

// Register creates the account on the server. The password is wiped
// afterwards.
func (a *authService) Register(ctx context.Context, in client.RegisterInput, password []byte) (string, error) {
	defer common.WipeByteArray(password)

	in.Password = string(password)
	return a.client.Register(ctx, in)
}

// Login authenticates against the server and caches the issued pair,
// replacing whatever session was cached before.
func (a *authService) Login(ctx context.Context, userName string, password []byte) error {
	defer common.WipeByteArray(password)

	res, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	err = a.session.SetCredentials(ctx, session.Credentials{
		AccountID:    res.AccountID,
		UserName:     userName,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("credentials saving error: %w", err)
	}
	return nil
}

// WhoAmI asks the server which account the cached access token belongs to.
func (a *authService) WhoAmI(ctx context.Context) (string, error) {
	if !a.session.LoggedIn() {
		return "", ErrNotLoggedIn
	}

	var id string
	err := a.session.Do(ctx, func(ctx context.Context, accessToken string) error {
		var err error
		id, err = a.client.CheckAuth(ctx, accessToken)
		return err
	})
	return id, err
}

func (a *authService) ChangePassword(ctx context.Context, current, next []byte) error {
	defer common.WipeByteArray(current)
	defer common.WipeByteArray(next)

	if !a.session.LoggedIn() {
		return ErrNotLoggedIn
	}

	return a.session.Do(ctx, func(ctx context.Context, accessToken string) error {
		return a.client.ChangePassword(ctx, accessToken, string(current), string(next))
	})
}

// Logout revokes the refresh token on the server and forgets the local
// credentials. The local part happens even when the server call fails; that
// error is still returned.
func (a *authService) Logout(ctx context.Context) error {
	if !a.session.LoggedIn() {
		return ErrNotLoggedIn
	}

	remoteErr := a.session.Do(ctx, a.client.Logout)

	if err := a.session.Clear(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(remoteErr, err)
	}
	return remoteErr
}

func (a *authService) LoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *authService) UserName() string {
	return a.session.Credentials().UserName
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
