package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	pb "github.com/dmitrijs2005/socialnet/internal/proto"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"google.golang.org/grpc"
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

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address  string
	accounts AccountService
	tokens   TokenVerifier
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, accounts AccountService, tokens TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
		tokens:   tokens,
	}
}

// NewServer builds a grpc.Server with the access-token interceptor and the
// auth service registered. Run uses it; tests can serve it on a bufconn.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterAuthServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
