package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a process-local Repository used for development and
// tests. Returned accounts are copies.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*models.Account
	byName   map[string]string
	byEmail  map[string]string
	byRefTok map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]*models.Account),
		byName:   make(map[string]string),
		byEmail:  make(map[string]string),
		byRefTok: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[account.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	account.RefreshToken = nil

	r.byID[account.ID] = copyAccount(account)
	r.byName[account.UserName] = account.ID
	r.byEmail[account.Email] = account.ID

	return account, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

func (r *MemoryRepository) GetByUserName(_ context.Context, userName string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) FindByRefreshToken(_ context.Context, token string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRefTok[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) SetRefreshToken(_ context.Context, id string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceRefreshToken(id, &token)
}

func (r *MemoryRepository) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceRefreshToken(id, nil)
}

func (r *MemoryRepository) ChangePasswordHash(_ context.Context, id string, check PasswordCheck, newHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := check(append([]byte(nil), acc.PasswordHash...)); err != nil {
		return err
	}
	acc.PasswordHash = append([]byte(nil), newHash...)
	return nil
}

// caller holds the write lock
func (r *MemoryRepository) replaceRefreshToken(id string, token *string) error {
	acc, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}

	if acc.RefreshToken != nil {
		delete(r.byRefTok, *acc.RefreshToken)
	}
	if token == nil {
		acc.RefreshToken = nil
		return nil
	}

	tok := *token
	acc.RefreshToken = &tok
	r.byRefTok[tok] = id
	return nil
}

// caller holds at least the read lock
func (r *MemoryRepository) lookup(id string) (*models.Account, error) {
	acc, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyAccount(acc), nil
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	if a.RefreshToken != nil {
		tok := *a.RefreshToken
		c.RefreshToken = &tok
	}
	return &c
}
