// Package client talks to the socialnet authentication server.
//
// Client is the transport-agnostic contract. HTTPClient speaks the REST API
// and GRPCClient the AuthService over gRPC. Neither keeps any tokens: protected
// calls take the access token as an argument, and renewal is left to the
// session package that wraps them.
//
// Server rejections are mapped to the sentinel errors in errors.go so callers
// can match them with errors.Is regardless of the transport. The server's own
// message is kept in the error text.
//
// InitDatabase opens the local SQLite database and applies the embedded goose
// migrations.
package client
