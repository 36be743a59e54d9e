package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

const (
	recordKeyPrefix = "refresh:rec:"
	hashKeyPrefix   = "refresh:hash:"
	familyKeyPrefix = "refresh:family:"

	revokedNow = 1
)

// revokeScript flips revoked to "1" only if the record exists and is still
// active, so two concurrent rotations of one token cannot both succeed.
// A non-empty ARGV[2] links the record to the successor it was rotated into.
var revokeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HGET', KEYS[1], 'revoked') == '1' then
	return 0
end
redis.call('HSET', KEYS[1], 'revoked', '1', 'last_used_at', ARGV[1])
if ARGV[2] ~= '' then
	redis.call('HSET', KEYS[1], 'replaced_by', ARGV[2])
end
return 1
`)

// SessionStorage keeps refresh token records in redis hashes. Keys expire
// on their own once a record is older than expires_at + retention.
type SessionStorage struct {
	client    *redis.Client
	retention time.Duration
}

func NewSessionStorage(client *redis.Client, retention time.Duration) *SessionStorage {
	return &SessionStorage{client: client, retention: retention}
}

func (s *SessionStorage) Insert(ctx context.Context, record models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	hashKey := hashKeyPrefix + record.TokenHash
	ok, err := s.client.SetNX(ctx, hashKey, record.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve refresh token hash: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("refresh token %s: %w", record.ID, storage.ErrDuplicate)
	}

	recKey := recordKeyPrefix + record.ID
	famKey := familyKeyPrefix + record.FamilyID
	deadline := record.ExpiresAt.Add(s.retention)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, recKey, encodeRecord(record))
		pipe.ExpireAt(ctx, recKey, deadline)
		pipe.ExpireAt(ctx, hashKey, deadline)
		pipe.SAdd(ctx, famKey, record.ID)
		pipe.ExpireAt(ctx, famKey, deadline)
		return nil
	})
	if err != nil {
		_ = s.client.Del(ctx, hashKey).Err()
		return nil, fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return &record, nil
}

func (s *SessionStorage) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	id, err := s.client.Get(ctx, hashKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return s.get(ctx, id)
}

func (s *SessionStorage) get(ctx context.Context, id string) (*models.RefreshTokenRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return decodeRecord(fields)
}

func (s *SessionStorage) Revoke(ctx context.Context, id string, usedAt time.Time) error {
	if _, err := s.revoke(ctx, id, usedAt, ""); err != nil {
		return err
	}
	return nil
}

func (s *SessionStorage) RevokeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error {
	id, err := s.client.Get(ctx, hashKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token by hash: %w", err)
	}
	return s.Revoke(ctx, id, usedAt)
}

// Rotate revokes the old record first and inserts the successor after.
// A failed insert leaves the chain revoked.
func (s *SessionStorage) Rotate(ctx context.Context, oldID string, usedAt time.Time, next models.RefreshTokenRecord) (*models.RefreshTokenRecord, error) {
	res, err := s.revoke(ctx, oldID, usedAt, next.ID)
	if err != nil {
		return nil, err
	}
	if res != revokedNow {
		return nil, storage.ErrRefreshTokenRevoked
	}
	return s.Insert(ctx, next)
}

func (s *SessionStorage) RevokeFamily(ctx context.Context, familyID string, usedAt time.Time) error {
	ids, err := s.client.SMembers(ctx, familyKeyPrefix+familyID).Result()
	if err != nil {
		return fmt.Errorf("revoke refresh token family: %w", err)
	}
	for _, id := range ids {
		if _, err := s.revoke(ctx, id, usedAt, ""); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExpired is a no-op: every key carries an expiry of expires_at + retention.
func (s *SessionStorage) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *SessionStorage) revoke(ctx context.Context, id string, usedAt time.Time, replacedBy string) (int, error) {
	res, err := revokeScript.Run(ctx, s.client, []string{recordKeyPrefix + id}, usedAt.UTC().Format(time.RFC3339Nano), replacedBy).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return res, nil
}

func encodeRecord(r models.RefreshTokenRecord) map[string]any {
	revoked := "0"
	if r.Revoked {
		revoked = "1"
	}
	fields := map[string]any{
		"id":         r.ID,
		"user_id":    r.UserID,
		"family_id":  r.FamilyID,
		"token_hash": r.TokenHash,
		"revoked":    revoked,
		"expires_at": r.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"created_at": r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"user_agent": r.UserAgent,
		"ip_address": r.IPAddress,
	}
	if r.LastUsedAt != nil {
		fields["last_used_at"] = r.LastUsedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.ReplacedBy != "" {
		fields["replaced_by"] = r.ReplacedBy
	}
	return fields
}

func decodeRecord(f map[string]string) (*models.RefreshTokenRecord, error) {
	expiresAt, err := time.Parse(time.RFC3339Nano, f["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, f["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	record := &models.RefreshTokenRecord{
		ID:         f["id"],
		UserID:     f["user_id"],
		FamilyID:   f["family_id"],
		TokenHash:  f["token_hash"],
		Revoked:    f["revoked"] == "1",
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		ReplacedBy: f["replaced_by"],
		UserAgent:  f["user_agent"],
		IPAddress:  f["ip_address"],
	}
	if v, ok := f["last_used_at"]; ok && v != "" {
		lastUsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse last_used_at: %w", err)
		}
		record.LastUsedAt = &lastUsed
	}
	return record, nil
}
