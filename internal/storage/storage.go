package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/seniorble/guardian/internal/models"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token already revoked")
	ErrDuplicate            = errors.New("duplicate record")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account models.Account) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// RefreshTokenStore persists refresh token records by hash. Implementations
// must make Rotate's revoke of the old record visible no later than the
// insert of the new one, and Rotate alone sets the old record's ReplacedBy.
type RefreshTokenStore interface {
	Insert(ctx context.Context, record models.RefreshTokenRecord) (*models.RefreshTokenRecord, error)
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error)
	Revoke(ctx context.Context, id string, usedAt time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error
	Rotate(ctx context.Context, oldID string, usedAt time.Time, next models.RefreshTokenRecord) (*models.RefreshTokenRecord, error)
	RevokeFamily(ctx context.Context, familyID string, usedAt time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type PatientRepository interface {
	CreatePatient(ctx context.Context, patient models.Patient) (*models.Patient, error)
	ListPatientsByGuardian(ctx context.Context, guardianID string) ([]models.Patient, error)
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}
