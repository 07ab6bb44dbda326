package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testSigningConfig() SigningConfig {
	return SigningConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestManager(t *testing.T) (*TokenManager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m, err := NewTokenManager(testSigningConfig(), WithClock(clock.Now))
	require.NoError(t, err)
	return m, clock
}

func TestSigningConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SigningConfig)
	}{
		{name: "empty access secret", mutate: func(c *SigningConfig) { c.AccessSecret = nil }},
		{name: "empty refresh secret", mutate: func(c *SigningConfig) { c.RefreshSecret = nil }},
		{name: "same secrets", mutate: func(c *SigningConfig) { c.RefreshSecret = c.AccessSecret }},
		{name: "zero access ttl", mutate: func(c *SigningConfig) { c.AccessTTL = 0 }},
		{name: "negative refresh ttl", mutate: func(c *SigningConfig) { c.RefreshTTL = -time.Second }},
	}

	require.NoError(t, testSigningConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSigningConfig()
			tt.mutate(&cfg)
			_, err := NewTokenManager(cfg)
			require.Error(t, err)
		})
	}
}

func TestIssuePair_SameSubject(t *testing.T) {
	m, _ := newTestManager(t)

	access, refresh, err := m.IssuePair("acc-1")
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	gotAccess, err := m.ParseAccess(access)
	require.NoError(t, err)
	gotRefresh, err := m.ParseRefresh(refresh)
	require.NoError(t, err)

	assert.Equal(t, "acc-1", gotAccess)
	assert.Equal(t, gotAccess, gotRefresh)
}

func TestIssue_Lifetimes(t *testing.T) {
	m, clock := newTestManager(t)

	access, refresh, err := m.IssuePair("acc-1")
	require.NoError(t, err)

	parse := func(tok string) *Claims {
		c := &Claims{}
		_, _, err := jwt.NewParser().ParseUnverified(tok, c)
		require.NoError(t, err)
		return c
	}

	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), parse(access).ExpiresAt.Unix())
	assert.Equal(t, clock.Now().Add(7*24*time.Hour).Unix(), parse(refresh).ExpiresAt.Unix())
}

func TestIssue_DistinctTokensWithinSameSecond(t *testing.T) {
	m, _ := newTestManager(t)

	r1, err := m.IssueRefresh("acc-1")
	require.NoError(t, err)
	r2, err := m.IssueRefresh("acc-1")
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2)
}

func TestParseAccess_ExpiredAfterOneHour(t *testing.T) {
	m, clock := newTestManager(t)

	access, err := m.IssueAccess("acc-1")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = m.ParseAccess(access)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = m.ParseAccess(access)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseRefresh_ExpiredAfterSevenDays(t *testing.T) {
	m, clock := newTestManager(t)

	refresh, err := m.IssueRefresh("acc-1")
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Second)
	_, err = m.ParseRefresh(refresh)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParse_SecretsAreNotInterchangeable(t *testing.T) {
	m, _ := newTestManager(t)

	access, refresh, err := m.IssuePair("acc-1")
	require.NoError(t, err)

	_, err = m.ParseAccess(refresh)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = m.ParseRefresh(access)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_Malformed(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ParseAccess("not.a.jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = m.ParseAccess("")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	m, clock := newTestManager(t)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
		UserID:           "acc-1",
	})
	s, err := tok.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = m.ParseAccess(s)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RequiresSubject(t *testing.T) {
	m, _ := newTestManager(t)

	tok, err := m.IssueAccess("")
	require.NoError(t, err)

	_, err = m.ParseAccess(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUserID(context.Background(), "acc-9")
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "acc-9", id)
}
