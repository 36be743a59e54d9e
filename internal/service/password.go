package service

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/seniorble/guardian/internal/util"
)

// PasswordHasher wraps bcrypt with a fixed, validated cost.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher fails with ErrHashCost when cost is outside
// [util.MinBcryptCost, util.MaxBcryptCost].
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < util.MinBcryptCost || cost > util.MaxBcryptCost {
		return nil, fmt.Errorf("%w: %d", ErrHashCost, cost)
	}

	filler := make([]byte, 32)
	if _, err := rand.Read(filler); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(filler, cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports a mismatch as (false, nil). Only an unparsable hash is an error.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrHashFormat, err)
	}
}

// VerifyDummy burns the same CPU as Verify against a hash nobody owns.
// Login calls it for unknown emails.
func (h *PasswordHasher) VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
