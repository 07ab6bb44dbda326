// Package repomanager hands out the account repository for the configured
// storage backend and owns that backend's connection lifecycle.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	Accounts() accounts.Repository
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
