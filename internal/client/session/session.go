// Package session keeps the client's cached credentials and wraps every
// authenticated call so that an expired access token is renewed once and the
// call replayed once, without the caller noticing.
//
// Lifecycle of a single Do:
//
//	Idle -> InFlight -> (ok) Idle
//	                 -> (credential rejected) Refreshing -> (ok) InFlight, replay once -> Idle
//	                                                                       -> (rejected) Failed
//	                                                     -> (fail) Failed, credentials cleared
//
// Failed is sticky until new credentials are installed with SetCredentials.
// While Failed (or with no refresh token cached) a rejected call ends with
// ErrSessionEnded and no refresh is attempted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionEnded is returned when the server rejected the credential and it
// could not be renewed. The user has to log in again.
var ErrSessionEnded = errors.New("session ended, please log in again")

// ErrCredentialRejected is what Call implementations return by default to
// signal an "invalid or expired credential" rejection. See WithRejection.
var ErrCredentialRejected = errors.New("credential rejected")

type State int

const (
	Idle State = iota
	InFlight
	Refreshing
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Refreshing:
		return "refreshing"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Credentials is what the client caches after a successful login.
type Credentials struct {
	AccountID    string
	UserName     string
	AccessToken  string
	RefreshToken string
}

// Call performs one authenticated request with the given access token.
type Call func(ctx context.Context, accessToken string) error

// RefreshFunc exchanges a refresh token for a new access token.
type RefreshFunc func(ctx context.Context, refreshToken string) (string, error)

// DefaultRefreshTimeout bounds a shared refresh, which outlives the ctx of
// the caller that started it.
const DefaultRefreshTimeout = 30 * time.Second

type Session struct {
	store          Store
	refresh        RefreshFunc
	rejected       func(error) bool
	refreshTimeout time.Duration

	mu         sync.Mutex
	creds      Credentials
	inFlight   int
	refreshing bool
	failed     bool

	group singleflight.Group
}

type Option func(*Session)

func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Session) { s.refreshTimeout = d }
}

// WithRejection replaces the predicate that decides whether an error returned
// by a Call means "invalid or expired credential". Only such errors trigger a
// refresh; everything else is handed back to the caller untouched.
func WithRejection(fn func(error) bool) Option {
	return func(s *Session) { s.rejected = fn }
}

func New(store Store, refresh RefreshFunc, opts ...Option) *Session {
	s := &Session{
		store:   store,
		refresh: refresh,
		rejected: func(err error) bool {
			return errors.Is(err, ErrCredentialRejected)
		},
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores credentials persisted by an earlier run.
func (s *Session) Load(ctx context.Context) error {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.failed = false
	s.mu.Unlock()
	return nil
}

// SetCredentials installs (and persists) a freshly issued pair, leaving the
// Failed state.
func (s *Session) SetCredentials(ctx context.Context, creds Credentials) error {
	if err := s.store.Save(ctx, creds); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.failed = false
	s.mu.Unlock()
	return nil
}

// Clear forgets all cached credentials, in memory and in the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

func (s *Session) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// LoggedIn reports whether an access token is cached.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.AccessToken != ""
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.failed:
		return Failed
	case s.refreshing:
		return Refreshing
	case s.inFlight > 0:
		return InFlight
	default:
		return Idle
	}
}

// Do runs call with the cached access token. If the call is rejected as an
// invalid or expired credential, Do renews the access token once (sharing a
// single refresh among concurrent callers) and replays call exactly once.
// A failed renewal, or a replay rejected again, clears the cached credentials
// and yields ErrSessionEnded.
func (s *Session) Do(ctx context.Context, call Call) error {
	token := s.begin()
	err := call(ctx, token)
	s.end()

	if err == nil || !s.rejected(err) {
		return err
	}

	fresh, rerr := s.renew(ctx, token)
	if rerr != nil {
		return rerr
	}

	s.begin()
	err = call(ctx, fresh)
	s.end()

	if err != nil && s.rejected(err) {
		s.expire(ctx, fresh)
		return fmt.Errorf("%w: %v", ErrSessionEnded, err)
	}
	return err
}

// expire moves to Failed and drops the cached credentials, unless they were
// replaced after access was handed out.
func (s *Session) expire(ctx context.Context, access string) {
	s.mu.Lock()
	if s.creds.AccessToken != access {
		s.mu.Unlock()
		return
	}
	s.failed = true
	s.creds = Credentials{}
	s.mu.Unlock()

	_ = s.store.Clear(context.WithoutCancel(ctx))
}

func (s *Session) begin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	return s.creds.AccessToken
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

// renew returns an access token newer than stale, refreshing if nobody else
// already has.
func (s *Session) renew(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	if s.failed || s.creds.RefreshToken == "" {
		s.failed = true
		s.mu.Unlock()
		return "", ErrSessionEnded
	}
	if s.creds.AccessToken != "" && s.creds.AccessToken != stale {
		// another caller already renewed it
		fresh := s.creds.AccessToken
		s.mu.Unlock()
		return fresh, nil
	}
	refreshToken := s.creds.RefreshToken
	s.mu.Unlock()

	// the shared refresh must not die with whichever caller started it
	ch := s.group.DoChan(refreshToken, func() (any, error) {
		return s.doRefresh(context.WithoutCancel(ctx), refreshToken)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) doRefresh(ctx context.Context, refreshToken string) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	s.mu.Lock()
	s.refreshing = true
	s.mu.Unlock()

	access, err := s.refresh(rctx, refreshToken)

	s.mu.Lock()
	s.refreshing = false
	if err != nil && rctx.Err() != nil {
		// timed out; the refresh token itself was not judged
		s.mu.Unlock()
		return "", rctx.Err()
	}
	if err != nil || access == "" {
		s.failed = true
		s.creds = Credentials{}
		s.mu.Unlock()

		_ = s.store.Clear(ctx)
		if err == nil {
			err = errors.New("empty access token")
		}
		return "", fmt.Errorf("%w: %v", ErrSessionEnded, err)
	}

	// a concurrent Clear or SetCredentials wins over this refresh
	if s.creds.RefreshToken == refreshToken {
		s.creds.AccessToken = access
	}
	creds := s.creds
	s.mu.Unlock()

	if creds.RefreshToken == refreshToken {
		_ = s.store.Save(ctx, creds)
	}
	return access, nil
}
