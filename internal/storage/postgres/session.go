package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

const refreshColumns = `id, user_id, family_id, token_hash, revoked, expires_at, created_at, last_used_at, replaced_by, user_agent, ip_address`

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, record models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	query := `INSERT INTO refresh_tokens (id, user_id, family_id, token_hash, revoked, expires_at, created_at, user_agent, ip_address) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.FamilyID,
		record.TokenHash,
		record.Revoked,
		record.ExpiresAt,
		record.CreatedAt,
		record.UserAgent,
		record.IPAddress,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("refresh token %s: %w", record.ID, storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return &record, nil
}

func (r *SessionRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	var (
		record     models.RefreshTokenRecord
		lastUsed   sql.NullTime
		replacedBy sql.NullString
	)
	query := `SELECT ` + refreshColumns + ` FROM refresh_tokens WHERE token_hash = $1`
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&record.ID,
		&record.UserID,
		&record.FamilyID,
		&record.TokenHash,
		&record.Revoked,
		&record.ExpiresAt,
		&record.CreatedAt,
		&lastUsed,
		&replacedBy,
		&record.UserAgent,
		&record.IPAddress,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if lastUsed.Valid {
		record.LastUsedAt = &lastUsed.Time
	}
	record.ReplacedBy = replacedBy.String
	return &record, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, last_used_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, last_used_at = $2 WHERE token_hash = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, tokenHash, usedAt); err != nil {
		return fmt.Errorf("failed to revoke refresh token by hash: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeFamily(ctx context.Context, familyID string, usedAt time.Time) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, last_used_at = $2 WHERE family_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, familyID, usedAt); err != nil {
		return fmt.Errorf("revoke refresh token family: %w", err)
	}
	return nil
}

// markRotated flips an active record to revoked, links it to its successor
// and reports storage.ErrRefreshTokenRevoked when another caller got there first.
func (r *SessionRepository) markRotated(ctx context.Context, id string, usedAt time.Time, nextID string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, last_used_at = $2, replaced_by = $3 WHERE id = $1 AND revoked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, usedAt, nextID)
	if err != nil {
		return fmt.Errorf("failed to mark refresh token as used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrRefreshTokenRevoked
	}
	return nil
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
