package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/socialnet/internal/common"
	pb "github.com/dmitrijs2005/socialnet/internal/proto"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var protectedMethods = map[string]bool{
	pb.AuthService_Logout_FullMethodName:         true,
	pb.AuthService_CheckAuth_FullMethodName:      true,
	pb.AuthService_ChangePassword_FullMethodName: true,
}

// accessTokenInterceptor verifies the bearer token on protected methods.
// Missing token -> Unauthenticated, bad or expired token -> PermissionDenied.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(pb.AuthorizationMetadataKey); len(values) > 0 {
			header = values[0]
		}
	}

	token, ok := common.BearerToken(header)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := s.tokens.ParseAccess(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.PermissionDenied, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.PermissionDenied, common.ErrInvalidToken.Error())
	}

	return handler(auth.WithUserID(ctx, userID), req)
}
