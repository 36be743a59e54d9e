package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type Storage struct {
	db *sql.DB
	*UserRepository
	*SessionRepository
	*PatientRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                db,
		UserRepository:    NewUserRepository(db),
		SessionRepository: NewSessionRepository(db),
		PatientRepository: NewPatientRepository(db),
	}
}

// Rotate marks the old refresh token as replaced by next and inserts the
// successor in one transaction. The UPDATE takes the row lock, so a concurrent rotation
// of the same token blocks and then sees revoked = TRUE.
func (s *Storage) Rotate(ctx context.Context, oldID string, usedAt time.Time, next models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	var inserted *models.RefreshTokenRecord
	err := storage.WithTx(ctx, s.db, func(tx storage.DBTX) error {
		sessionRepoTx := NewSessionRepository(tx)

		if err := sessionRepoTx.markRotated(ctx, oldID, usedAt, next.ID); err != nil {
			return fmt.Errorf("failed to mark session as used in tx: %w", err)
		}

		rec, err := sessionRepoTx.Insert(ctx, next)
		if err != nil {
			return fmt.Errorf("failed to create new session in tx: %w", err)
		}
		inserted = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
