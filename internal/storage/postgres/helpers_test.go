package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/seniorble/guardian/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func sampleRecord() models.RefreshTokenRecord {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.RefreshTokenRecord{
		ID:        "rec-1",
		UserID:    "user-1",
		FamilyID:  "fam-1",
		TokenHash: "hash-1",
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		CreatedAt: now,
		UserAgent: "agent",
		IPAddress: "10.0.0.1",
	}
}

func recordArgs(r models.RefreshTokenRecord) []driver.Value {
	return []driver.Value{r.ID, r.UserID, r.FamilyID, r.TokenHash, r.Revoked, r.ExpiresAt, r.CreatedAt, r.UserAgent, r.IPAddress}
}
