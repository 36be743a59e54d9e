package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

// InMemorySessionManager is a RefreshTokenStore kept in process memory.
// It is meant for tests and local runs; records do not survive restarts.
type InMemorySessionManager struct {
	mu      sync.RWMutex
	records map[string]models.RefreshTokenRecord
	byHash  map[string]string
	log     *zap.SugaredLogger

	// FailInsert makes the next Insert fail, used to exercise fail-closed paths.
	FailInsert error
}

func NewSessionRepository(log *zap.SugaredLogger) *InMemorySessionManager {
	return &InMemorySessionManager{
		records: make(map[string]models.RefreshTokenRecord),
		byHash:  make(map[string]string),
		log:     log,
	}
}

func (m *InMemorySessionManager) Insert(_ context.Context, record models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(record)
}

func (m *InMemorySessionManager) insertLocked(record models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	if m.FailInsert != nil {
		err := m.FailInsert
		m.FailInsert = nil
		return nil, err
	}
	if _, ok := m.records[record.ID]; ok {
		return nil, storage.ErrDuplicate
	}
	if _, ok := m.byHash[record.TokenHash]; ok {
		return nil, storage.ErrDuplicate
	}

	m.records[record.ID] = record
	m.byHash[record.TokenHash] = record.ID
	m.log.Debugw("Session created", "sessionID", record.ID, "userID", record.UserID, "familyID", record.FamilyID)

	return &record, nil
}

func (m *InMemorySessionManager) FindByHash(_ context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byHash[tokenHash]
	if !ok {
		return nil, storage.ErrRefreshTokenNotFound
	}
	record := m.records[id]
	return &record, nil
}

func (m *InMemorySessionManager) Revoke(_ context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revokeLocked(id, usedAt, "")
	return nil
}

func (m *InMemorySessionManager) RevokeByHash(_ context.Context, tokenHash string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byHash[tokenHash]; ok {
		m.revokeLocked(id, usedAt, "")
	}
	return nil
}

func (m *InMemorySessionManager) RevokeFamily(_ context.Context, familyID string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, record := range m.records {
		if record.FamilyID == familyID {
			m.revokeLocked(id, usedAt, "")
		}
	}
	return nil
}

func (m *InMemorySessionManager) Rotate(_ context.Context, oldID string, usedAt time.Time, next models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.revokeLocked(oldID, usedAt, next.ID) {
		return nil, storage.ErrRefreshTokenRevoked
	}
	return m.insertLocked(next)
}

func (m *InMemorySessionManager) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, record := range m.records {
		if record.ExpiresAt.Before(before) {
			delete(m.byHash, record.TokenHash)
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// revokeLocked reports whether the record existed and was active before the call.
func (m *InMemorySessionManager) revokeLocked(id string, usedAt time.Time, replacedBy string) bool {
	record, ok := m.records[id]
	if !ok || record.Revoked {
		return false
	}
	record.Revoked = true
	used := usedAt
	record.LastUsedAt = &used
	record.ReplacedBy = replacedBy
	m.records[id] = record
	return true
}

// Records returns a snapshot of every stored record.
func (m *InMemorySessionManager) Records() []models.RefreshTokenRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RefreshTokenRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}
