package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/client/client"
	"github.com/dmitrijs2005/socialnet/internal/client/services"
	"github.com/dmitrijs2005/socialnet/internal/client/session"
	"github.com/dmitrijs2005/socialnet/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describe turns a command error into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionEnded):
		return "your session has ended, please log in again"
	case errors.Is(err, services.ErrNotLoggedIn):
		return "you are not logged in"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	default:
		return err.Error()
	}
}

// Register prompts for the profile and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	var in client.RegisterInput
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Enter username", &in.UserName},
		{"Enter name", &in.Name},
		{"Enter surname", &in.Surname},
		{"Enter email", &in.Email},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Register(ctx, in, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registered! You can log in now.")
	return nil
}

// Login prompts for credentials and starts a new session, replacing any
// cached one.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, userName, password); err != nil {
		a.logger.Warn(ctx, "Login unsuccessful", "username", userName)
		return err
	}

	a.logger.Info(ctx, "Login successful", "username", userName)
	fmt.Fprintf(a.out, "Logged in as %s\n", userName)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id, err := a.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (id %s)\n", a.authService.UserName(), id)
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.authService.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

// Logout ends the session on the server and locally. Local credentials are
// dropped even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	if err != nil && !errors.Is(err, services.ErrNotLoggedIn) {
		a.logger.Warn(ctx, "server logout failed", "error", err.Error())
		fmt.Fprintln(a.out, "Logged out locally; the server could not confirm:", describe(err))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
