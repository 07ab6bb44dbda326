package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldID           = "id"
	fieldUserName     = "username"
	fieldName         = "name"
	fieldSurname      = "surname"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldRefreshToken = "refresh_token"
	fieldCreatedAt    = "created_at"
)

// RedisRepository keeps each account in a hash plus three lookup keys:
//
//	<prefix>:account:<id>          hash with the account fields
//	<prefix>:username:<username>   -> id
//	<prefix>:email:<email>         -> id
//	<prefix>:refresh:<token>       -> id (only for the current token)
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "socialnet"
	}
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisRepository) accountKey(id string) string  { return r.prefix + ":account:" + id }
func (r *RedisRepository) userNameKey(u string) string  { return r.prefix + ":username:" + u }
func (r *RedisRepository) emailKey(e string) string     { return r.prefix + ":email:" + e }
func (r *RedisRepository) refreshKey(tok string) string { return r.prefix + ":refresh:" + tok }

func (r *RedisRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	id := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, r.userNameKey(account.UserName), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return nil, common.ErrorAlreadyExists
	}

	ok, err = r.rdb.SetNX(ctx, r.emailKey(account.Email), id, 0).Result()
	if err != nil || !ok {
		r.rdb.Del(ctx, r.userNameKey(account.UserName))
		if err != nil {
			return nil, fmt.Errorf("redis error: %w", err)
		}
		return nil, common.ErrorAlreadyExists
	}

	account.ID = id
	account.CreatedAt = time.Now().UTC()

	err = r.rdb.HSet(ctx, r.accountKey(id), map[string]any{
		fieldID:           id,
		fieldUserName:     account.UserName,
		fieldName:         account.Name,
		fieldSurname:      account.Surname,
		fieldEmail:        account.Email,
		fieldPasswordHash: string(account.PasswordHash),
		fieldRefreshToken: "",
		fieldCreatedAt:    strconv.FormatInt(account.CreatedAt.UnixNano(), 10),
	}).Err()
	if err != nil {
		r.rdb.Del(ctx, r.userNameKey(account.UserName), r.emailKey(account.Email))
		return nil, fmt.Errorf("redis error: %w", err)
	}

	return account, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	values, err := r.rdb.HGetAll(ctx, r.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(values) == 0 {
		return nil, common.ErrorNotFound
	}
	return decodeAccount(values)
}

func (r *RedisRepository) GetByUserName(ctx context.Context, userName string) (*models.Account, error) {
	return r.getByIndex(ctx, r.userNameKey(userName))
}

// FindByRefreshToken double-checks the hash field so that a stale index
// entry left behind by a lost race never matches.
func (r *RedisRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	account, err := r.getByIndex(ctx, r.refreshKey(token))
	if err != nil {
		return nil, err
	}
	if account.RefreshToken == nil || *account.RefreshToken != token {
		return nil, common.ErrorNotFound
	}
	return account, nil
}

func (r *RedisRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	return r.replaceRefreshToken(ctx, id, token)
}

func (r *RedisRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.replaceRefreshToken(ctx, id, "")
}

func (r *RedisRepository) ChangePasswordHash(ctx context.Context, id string, check PasswordCheck, newHash []byte) error {
	key := r.accountKey(id)

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldPasswordHash).Result()
		if errors.Is(err, redis.Nil) {
			return common.ErrorNotFound
		}
		if err != nil {
			return fmt.Errorf("redis error: %w", err)
		}

		if err := check([]byte(current)); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fieldPasswordHash, string(newHash))
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("redis error: concurrent password change: %w", err)
	}
	return err
}

func (r *RedisRepository) replaceRefreshToken(ctx context.Context, id string, token string) error {
	key := r.accountKey(id)

	old, err := r.rdb.HGet(ctx, key, fieldRefreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fieldRefreshToken, token)
		if old != "" && old != token {
			p.Del(ctx, r.refreshKey(old))
		}
		if token != "" {
			p.Set(ctx, r.refreshKey(token), id, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) getByIndex(ctx context.Context, indexKey string) (*models.Account, error) {
	id, err := r.rdb.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return r.GetByID(ctx, id)
}

func decodeAccount(values map[string]string) (*models.Account, error) {
	account := &models.Account{
		ID:           values[fieldID],
		UserName:     values[fieldUserName],
		Name:         values[fieldName],
		Surname:      values[fieldSurname],
		Email:        values[fieldEmail],
		PasswordHash: []byte(values[fieldPasswordHash]),
	}

	if tok := values[fieldRefreshToken]; tok != "" {
		account.RefreshToken = &tok
	}

	if raw := values[fieldCreatedAt]; raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at for account %s: %w", account.ID, err)
		}
		account.CreatedAt = time.Unix(0, nanos).UTC()
	}

	return account, nil
}
