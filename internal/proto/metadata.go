// Package proto holds the generated messages and gRPC bindings of
// socialnet.auth.v1.AuthService (see auth.proto).
package proto

//go:generate protoc --go_out=../.. --go_opt=paths=source_relative --go-grpc_out=../.. --go-grpc_opt=paths=source_relative -I ../.. internal/proto/auth.proto

// AuthorizationMetadataKey carries "Bearer <access token>" on protected calls.
const AuthorizationMetadataKey = "authorization"
