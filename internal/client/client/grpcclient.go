package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	pb "github.com/dmitrijs2005/socialnet/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(pb.AuthorizationMetadataKey, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

// NewGRPCClient connects to endpointURL without transport security. Extra
// dial options (a custom dialer in tests, for instance) are appended.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{
		endpointURL: endpointURL,
		conn:        conn,
		client:      pb.NewAuthServiceClient(conn),
	}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, in RegisterInput) (string, error) {
	req := &pb.RegisterRequest{
		Username: in.UserName,
		Name:     in.Name,
		Surname:  in.Surname,
		Email:    in.Email,
		Password: in.Password,
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetId(), nil
}

func (s *GRPCClient) Login(ctx context.Context, userName, password string) (LoginResult, error) {
	resp, err := s.client.Login(ctx, &pb.LoginRequest{Username: userName, Password: password})
	if err != nil {
		return LoginResult{}, s.mapError(err)
	}
	return LoginResult{AccountID: resp.GetId(), AccessToken: resp.GetAccessToken(), RefreshToken: resp.GetRefreshToken()}, nil
}

func (s *GRPCClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	resp, err := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetAccessToken(), nil
}

func (s *GRPCClient) Logout(ctx context.Context, accessToken string) error {
	_, err := s.client.Logout(withAccessToken(ctx, accessToken), &pb.LogoutRequest{})
	return s.mapError(err)
}

func (s *GRPCClient) CheckAuth(ctx context.Context, accessToken string) (string, error) {
	resp, err := s.client.CheckAuth(withAccessToken(ctx, accessToken), &pb.CheckAuthRequest{})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetUserId(), nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	req := &pb.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	_, err := s.client.ChangePassword(withAccessToken(ctx, accessToken), req)
	return s.mapError(err)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetStatus() != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = ErrInvalidInput
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = ErrForbidden
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.AlreadyExists:
		sentinel = ErrConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	case codes.Internal:
		sentinel = ErrServer
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
