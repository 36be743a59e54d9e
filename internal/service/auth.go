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

// AuthService registers guardian accounts.
type AuthService struct {
	accounts storage.AccountRepository
	hasher   *PasswordHasher
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewAuthService(accounts storage.AccountRepository, hasher *PasswordHasher, log *zap.SugaredLogger) *AuthService {
	return &AuthService{accounts: accounts, hasher: hasher, log: log, now: time.Now}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.Account, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.CreateAccount(ctx, models.Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         models.DefaultAccountRole,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Infow("account created", "userID", account.ID)
	return account, nil
}
