package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/client/repositories/metadata"
)

// Store persists Credentials between client runs.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.creds = Credentials{}
	m.mu.Unlock()
	return nil
}

// MetadataStore keeps credentials in the client's local metadata table.
type MetadataStore struct {
	repo metadata.Repository
}

func NewMetadataStore(repo metadata.Repository) *MetadataStore {
	return &MetadataStore{repo: repo}
}

func (m *MetadataStore) Load(ctx context.Context) (Credentials, error) {
	v, err := m.repo.Load(ctx, metadata.CredentialKeys...)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		AccountID:    v[metadata.KeyAccountID],
		UserName:     v[metadata.KeyUserName],
		AccessToken:  v[metadata.KeyAccessToken],
		RefreshToken: v[metadata.KeyRefreshToken],
	}, nil
}

// Save replaces the stored login as a whole; empty fields are removed.
func (m *MetadataStore) Save(ctx context.Context, creds Credentials) error {
	return m.repo.Store(ctx, map[metadata.Key]string{
		metadata.KeyAccountID:    creds.AccountID,
		metadata.KeyUserName:     creds.UserName,
		metadata.KeyAccessToken:  creds.AccessToken,
		metadata.KeyRefreshToken: creds.RefreshToken,
	})
}

func (m *MetadataStore) Clear(ctx context.Context) error {
	return m.repo.Delete(ctx, metadata.CredentialKeys...)
}
