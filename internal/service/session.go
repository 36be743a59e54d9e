package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage"
)

type LoginResult struct {
	Tokens  models.TokenPair
	Account models.AccountView
}

// SessionService drives the refresh chain: login opens one, refresh rotates
// it, logout revokes it. The store is the only shared state.
type SessionService struct {
	accounts storage.AccountRepository
	sessions storage.RefreshTokenStore
	tokens   *TokenService
	hasher   *PasswordHasher
	notifier ReuseNotifier
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewSessionService(
	accounts storage.AccountRepository,
	sessions storage.RefreshTokenStore,
	tokens *TokenService,
	hasher *PasswordHasher,
	notifier ReuseNotifier,
	log *zap.SugaredLogger,
) *SessionService {
	return &SessionService{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password, after spending one bcrypt comparison either way.
func (s *SessionService) Login(ctx context.Context, email, password string, meta models.ClientMetadata) (*LoginResult, error) {
	email = NormalizeEmail(email)

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			s.hasher.VerifyDummy(password)
			s.log.Infow("login failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.log.Errorw("stored password hash is unusable", "userID", account.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.log.Infow("login failed", "reason", "password mismatch", "userID", account.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.openChain(ctx, account, uuid.NewString(), meta)
	if err != nil {
		return nil, err
	}

	s.log.Infow("login succeeded", "userID", account.ID)
	return &LoginResult{Tokens: *pair, Account: account.View()}, nil
}

// Refresh validates the presented refresh token against the store and
// rotates it. Every client-facing failure wraps ErrUnauthenticated.
func (s *SessionService) Refresh(ctx context.Context, presented string, meta models.ClientMetadata) (*models.TokenPair, error) {
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	now := s.now()
	record, err := s.sessions.FindByHash(ctx, HashToken(presented))
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if record.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", ErrUnauthenticated)
	}

	if record.Rotated() {
		s.handleReuse(ctx, record, meta, now)
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrRefreshTokenReuse)
	}
	if record.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrUnauthenticated)
	}

	if record.Expired(now) {
		if err := s.sessions.Revoke(ctx, record.ID, now); err != nil {
			s.log.Errorw("failed to revoke expired refresh token", "sessionID", record.ID, "error", err)
		}
		return nil, fmt.Errorf("%w: refresh token expired", ErrUnauthenticated)
	}

	account, err := s.accounts.GetAccountByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			_ = s.sessions.Revoke(ctx, record.ID, now)
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	refreshToken, next, err := s.newRecord(account.ID, record.FamilyID, meta)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.Rotate(ctx, record.ID, now, *next); err != nil {
		if errors.Is(err, storage.ErrRefreshTokenRevoked) {
			// Another request spent the same token first. Its successor stays valid.
			s.log.Infow("refresh token rotation lost a concurrent race", "sessionID", record.ID, "familyID", record.FamilyID)
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		// Fail closed: the presented token must not outlive a failed rotation.
		if revErr := s.sessions.Revoke(ctx, record.ID, now); revErr != nil {
			s.log.Errorw("failed to revoke refresh token after rotation error", "sessionID", record.ID, "error", revErr)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	access, err := s.tokens.IssueAccess(account.ID, account.Role, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Infow("refresh token rotated", "userID", account.ID, "familyID", record.FamilyID)
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		RefreshExp:   next.ExpiresAt,
	}, nil
}

// Logout revokes the presented refresh token. Absent or unknown tokens are a no-op.
func (s *SessionService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	if err := s.sessions.RevokeByHash(ctx, HashToken(presented), s.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// PurgeExpired deletes records whose expiry is older than retention.
func (s *SessionService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge expired refresh tokens: %w", err)
	}
	s.log.Infow("purged refresh tokens", "deleted", n)
	return n, nil
}

func (s *SessionService) openChain(ctx context.Context, account *models.Account, familyID string, meta models.ClientMetadata) (*models.TokenPair, error) {
	access, err := s.tokens.IssueAccess(account.ID, account.Role, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, record, err := s.newRecord(account.ID, familyID, meta)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Insert(ctx, *record); err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		RefreshExp:   record.ExpiresAt,
	}, nil
}

func (s *SessionService) newRecord(userID, familyID string, meta models.ClientMetadata) (string, *models.RefreshTokenRecord, error) {
	token, expiresAt, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return "", nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return token, &models.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		FamilyID:  familyID,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}, nil
}

// handleReuse revokes the whole chain of a token that was already rotated away.
func (s *SessionService) handleReuse(ctx context.Context, record *models.RefreshTokenRecord, meta models.ClientMetadata, now time.Time) {
	s.log.Warnw("refresh token reuse detected, revoking chain",
		"userID", record.UserID,
		"familyID", record.FamilyID,
		"ip", meta.IPAddress,
	)
	if err := s.sessions.RevokeFamily(ctx, record.FamilyID, now); err != nil {
		s.log.Errorw("failed to revoke refresh token chain", "familyID", record.FamilyID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyTokenReuse(ctx, ReuseEvent{
			UserID:    record.UserID,
			FamilyID:  record.FamilyID,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			At:        now,
		})
	}
}
