package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/dbx"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation    = "23505"
	pgInvalidTextRepresn = "22P02"
)

const selectAccount = `SELECT id, username, name, surname, email, password_hash, refresh_token, created_at
		 FROM accounts`

// PostgresRepository implements Repository over database/sql with the pgx
// stdlib driver.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, name, surname, email, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		account.UserName, account.Name, account.Surname, account.Email, account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, r.db, selectAccount+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.Account, error) {
	return r.getOne(ctx, r.db, selectAccount+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	return r.getOne(ctx, r.db, selectAccount+` WHERE refresh_token = $1`, token)
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	return r.exec(ctx, `UPDATE accounts SET refresh_token = $2 WHERE id = $1`, id, token)
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE accounts SET refresh_token = NULL WHERE id = $1`, id)
}

// ChangePasswordHash locks the row for the duration of the check so two
// concurrent changes cannot both pass against the same old hash.
func (r *PostgresRepository) ChangePasswordHash(ctx context.Context, id string, check PasswordCheck, newHash []byte) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var current []byte
		err := tx.QueryRowContext(ctx,
			`SELECT password_hash FROM accounts WHERE id = $1 FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			return r.mapError(err)
		}

		if err := check(current); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, newHash)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return dbx.RequireAffected(res)
	})
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r.mapError(err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) getOne(ctx context.Context, db dbx.DBTX, query string, arg string) (*models.Account, error) {
	account := &models.Account{}
	var refresh sql.NullString

	err := db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.UserName, &account.Name, &account.Surname, &account.Email,
		&account.PasswordHash, &refresh, &account.CreatedAt,
	)
	if err != nil {
		return nil, r.mapError(err)
	}

	if refresh.Valid {
		account.RefreshToken = &refresh.String
	}

	return account, nil
}

// mapError translates "no rows" and malformed uuid input into ErrorNotFound;
// anything else is wrapped as a db error.
func (r *PostgresRepository) mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresn {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
