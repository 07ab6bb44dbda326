package client

import (
	"context"
)

type RegisterInput struct {
	UserName string
	Name     string
	Surname  string
	Email    string
	Password string
}

// LoginResult is the token pair issued by a successful login.
type LoginResult struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
}

type Client interface {
	Close() error
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, userName, password string) (LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	CheckAuth(ctx context.Context, accessToken string) (string, error)
	ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error
	Ping(ctx context.Context) error
}
