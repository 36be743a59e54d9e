package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db storage.DBTX
}

func NewUserRepository(db storage.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	query := `INSERT INTO users (id, email, password_hash, name, phone, role, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Phone,
		account.Role,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("account %s: %w", account.Email, storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

func (r *UserRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, email, password_hash, name, phone, role, created_at FROM users WHERE lower(email) = lower($1)`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, email, password_hash, name, phone, role, created_at FROM users WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.Phone,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
