package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/socialnet/internal/common"
	pb "github.com/dmitrijs2005/socialnet/internal/proto"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request")

	account, err := s.accounts.Register(ctx, services.RegisterInput{
		UserName: req.GetUsername(),
		Name:     req.GetName(),
		Surname:  req.GetSurname(),
		Email:    req.GetEmail(),
		Password: req.GetPassword(),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, "username or email already taken")
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "Registered", "username", account.UserName)
	return &pb.RegisterResponse{Id: account.ID, Username: account.UserName}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {

	pair, err := s.accounts.Login(ctx, req.GetUsername(), req.GetPassword())
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.LoginResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, Id: pair.AccountID}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.RefreshResponse, error) {

	access, err := s.accounts.Refresh(ctx, req.GetRefreshToken())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenRequired):
			return nil, status.Error(codes.Unauthenticated, "Refresh Token is required")
		case errors.Is(err, common.ErrInvalidRefreshToken):
			return nil, status.Error(codes.PermissionDenied, "Invalid refresh token")
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.RefreshResponse{AccessToken: access}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *pb.LogoutRequest) (*pb.LogoutResponse, error) {

	userID, _ := auth.UserIDFromContext(ctx)

	if err := s.accounts.Logout(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.NotFound, "User not found")
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.LogoutResponse{Message: "Logged out successfully"}, nil
}

func (s *GRPCServer) CheckAuth(ctx context.Context, _ *pb.CheckAuthRequest) (*pb.CheckAuthResponse, error) {

	userID, _ := auth.UserIDFromContext(ctx)

	return &pb.CheckAuthResponse{Message: "User authenticated successfully", UserId: userID}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *pb.ChangePasswordRequest) (*pb.ChangePasswordResponse, error) {

	userID, _ := auth.UserIDFromContext(ctx)

	err := s.accounts.ChangePassword(ctx, userID, req.GetCurrentPassword(), req.GetNewPassword())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "Incorrect current password")
		case errors.Is(err, common.ErrorNotFound):
			return nil, status.Error(codes.NotFound, "User not found")
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.ChangePasswordResponse{Message: "Password changed successfully"}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}
