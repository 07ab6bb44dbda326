// Package services contains server-side business logic. AccountService
// handles registration, login, access-token renewal, logout and password
// changes on top of the credential store.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is what a successful login hands back to the caller.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	UserName string
	Name     string
	Surname  string
	Email    string
	Password string
}

// AccountService provides authentication-related operations:
//   - Register: create accounts
//   - Login: verify credentials, mint and store a token pair
//   - Refresh: mint a new access token from the stored refresh token
//   - Logout: drop the stored refresh token
//   - ChangePassword: replace the password hash after checking the old one
type AccountService struct {
	repo       accounts.Repository
	tokens     *auth.TokenManager
	bcryptCost int
	dummyHash  []byte
}

// NewAccountService builds the service. bcryptCost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewAccountService(repo accounts.Repository, tokens *auth.TokenManager, bcryptCost int) (*AccountService, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("socialnet-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AccountService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Register validates input, hashes the password and creates the account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Create(ctx, &models.Account{
		UserName:     in.UserName,
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, common.ErrorInternal
	}
	return account, nil
}

// Login verifies the password and, on success, stores the new refresh token
// before returning the pair. Unknown user and wrong password are reported
// identically.
func (s *AccountService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {
	account, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	access, refresh, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repo.SetRefreshToken(ctx, account.ID, refresh); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, AccountID: account.ID}, nil
}

// Refresh returns a new access token. The refresh token must be the one
// currently stored for its account and must itself still verify; it is
// not rotated, so repeated calls keep succeeding until it expires or the
// account logs out or logs in again.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrRefreshTokenRequired
	}

	account, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidRefreshToken
		}
		return "", common.ErrorInternal
	}

	subject, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil || subject != account.ID {
		return "", common.ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccess(account.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return access, nil
}

// Logout clears the stored refresh token. Access tokens already issued stay
// valid until they expire.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	if err := s.repo.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// ChangePassword replaces the password hash if current matches. The stored
// refresh token is left as is.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current password and new password are required", common.ErrorValidation)
	}

	newHash, err := s.hash(next)
	if err != nil {
		return err
	}

	err = s.repo.ChangePasswordHash(ctx, accountID, func(stored []byte) error {
		if bcrypt.CompareHashAndPassword(stored, []byte(current)) != nil {
			return common.ErrorUnauthorized
		}
		return nil
	}, newHash)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorUnauthorized):
		return err
	default:
		return common.ErrorInternal
	}
}

// Get returns the account with the given id.
func (s *AccountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return account, nil
}

// --- helpers below ---

func (s *AccountService) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return nil, common.ErrorInternal
	}
	return h, nil
}

func validateRegister(in RegisterInput) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.UserName},
		{"name", in.Name},
		{"surname", in.Surname},
		{"email", in.Email},
		{"password", in.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: malformed email", common.ErrorValidation)
	}
	return nil
}
