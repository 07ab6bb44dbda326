package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// failingRepo wraps a real repository and injects errors per method.
type failingRepo struct {
	accounts.Repository
	setErr   error
	findErr  error
	clearErr error
	getErr   error
}

func (f *failingRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Repository.SetRefreshToken(ctx, id, token)
}

func (f *failingRepo) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Repository.FindByRefreshToken(ctx, token)
}

func (f *failingRepo) ClearRefreshToken(ctx context.Context, id string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Repository.ClearRefreshToken(ctx, id)
}

func (f *failingRepo) GetByUserName(ctx context.Context, name string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.GetByUserName(ctx, name)
}

type fixture struct {
	svc    *AccountService
	repo   *failingRepo
	tokens *auth.TokenManager
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenManager(auth.SigningConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	repo := &failingRepo{Repository: accounts.NewMemoryRepository()}
	svc, err := NewAccountService(repo, tokens, bcrypt.MinCost)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, tokens: tokens, clock: clock}
}

func (f *fixture) register(t *testing.T, user, password string) string {
	t.Helper()
	acc, err := f.svc.Register(context.Background(), RegisterInput{
		UserName: user,
		Name:     "Name",
		Surname:  "Surname",
		Email:    user + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return acc.ID
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.register(t, "alice", "pw")

	acc, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.UserName)
	assert.NotEqual(t, []byte("pw"), acc.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte("pw")))
	assert.Nil(t, acc.RefreshToken)

	_, err = f.svc.Register(ctx, RegisterInput{UserName: "alice", Name: "A", Surname: "B", Email: "x@example.com", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing username", RegisterInput{Name: "A", Surname: "B", Email: "a@b", Password: "pw"}},
		{"missing password", RegisterInput{UserName: "a", Name: "A", Surname: "B", Email: "a@b"}},
		{"blank name", RegisterInput{UserName: "a", Name: "  ", Surname: "B", Email: "a@b", Password: "pw"}},
		{"bad email", RegisterInput{UserName: "a", Name: "A", Surname: "B", Email: "nope", Password: "pw"}},
		{"password too long", RegisterInput{UserName: "a", Name: "A", Surname: "B", Email: "a@b", Password: string(make([]byte, 100))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestLogin_IssuesPairForSameSubjectAndStoresRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice", "pw")

	pair, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, id, pair.AccountID)

	accessSubject, err := f.tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	refreshSubject, err := f.tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, accessSubject)
	assert.Equal(t, id, refreshSubject)

	acc, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, acc.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *acc.RefreshToken)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")

	_, errWrong := f.svc.Login(context.Background(), "alice", "nope")
	_, errUnknown := f.svc.Login(context.Background(), "bob", "pw")

	assert.ErrorIs(t, errWrong, common.ErrorUnauthorized)
	assert.ErrorIs(t, errUnknown, common.ErrorUnauthorized)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_StoreFailureReturnsNoTokens(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw")
	f.repo.setErr = errors.New("db down")

	pair, err := f.svc.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Nil(t, pair)
}

func TestLogin_LookupFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.getErr = errors.New("db down")

	_, err := f.svc.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin_SecondLoginInvalidatesFirstRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")

	first, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_RepeatableWithoutRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice", "pw")

	pair, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		access, err := f.svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		subject, err := f.tokens.ParseAccess(access)
		require.NoError(t, err)
		assert.Equal(t, id, subject)
	}

	acc, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, *acc.RefreshToken)
}

func TestRefresh_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")

	_, err := f.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, common.ErrRefreshTokenRequired)

	_, err = f.svc.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	pair, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	f.repo.findErr = errors.New("db down")
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefresh_StoredButExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw")

	pair, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	f.clock.Advance(7*24*time.Hour + time.Second)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestLogout_ThenRefreshIsInvalidNotMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice", "pw")

	pair, err := f.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, id))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	assert.NotErrorIs(t, err, common.ErrRefreshTokenRequired)

	// access tokens are not revoked by logout
	_, err = f.tokens.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
}

func TestLogout_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Logout(ctx, "missing"), common.ErrorNotFound)

	id := f.register(t, "alice", "pw")
	f.repo.clearErr = errors.New("db down")
	assert.ErrorIs(t, f.svc.Logout(ctx, id), common.ErrorInternal)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice", "old")

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, id, "", "new"), common.ErrorValidation)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, id, "wrong", "new"), common.ErrorUnauthorized)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "missing", "old", "new"), common.ErrorNotFound)

	require.NoError(t, f.svc.ChangePassword(ctx, id, "old", "new"))

	_, err := f.svc.Login(ctx, "alice", "old")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.svc.Login(ctx, "alice", "new")
	assert.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNewAccountService_CostOutOfRangeFallsBack(t *testing.T) {
	f := newFixture(t)
	svc, err := NewAccountService(f.repo, f.tokens, 0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, svc.bcryptCost)
}
