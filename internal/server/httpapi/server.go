// Package httpapi exposes the account and session operations over a JSON
// REST surface routed with gorilla/mux.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"github.com/gorilla/mux"
)

// AccountService is the part of services.AccountService the handlers use.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, current, next string) error
}

// TokenVerifier checks an access token and returns its subject.
type TokenVerifier interface {
	ParseAccess(token string) (string, error)
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	accounts AccountService
	tokens   TokenVerifier
	logger   logging.Logger
	router   *mux.Router
}

func NewServer(address string, accounts AccountService, tokens TokenVerifier, l logging.Logger) *Server {
	s := &Server{
		address:  address,
		accounts: accounts,
		tokens:   tokens,
		logger:   l.With("module", "http_server"),
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the routed handler, for http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(RequestLogger(s.logger))

	authn := Authenticate(s.tokens, s.logger)

	authRoutes := s.router.PathPrefix("/api/auth").Subrouter()
	authRoutes.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRoutes.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	authRoutes.Handle("/logout", authn(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)

	userRoutes := s.router.PathPrefix("/api/users").Subrouter()
	userRoutes.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	userRoutes.Handle("/check-auth", authn(http.HandlerFunc(s.handleCheckAuth))).Methods(http.MethodGet)
	userRoutes.Handle("/change-password", authn(http.HandlerFunc(s.handleChangePassword))).Methods(http.MethodPut)

	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	s.router.NotFoundHandler = RequestLogger(s.logger)(http.HandlerFunc(unknownEndpoint))
	s.router.MethodNotAllowedHandler = s.router.NotFoundHandler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
