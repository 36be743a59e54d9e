package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/util"
)

var ErrInvalidSigningMethod = errors.New("invalid signing method")

// TokenService mints and verifies access and refresh JWTs. Each kind has its
// own HMAC key and its own claim set.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

type accessJWTClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshJWTClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

func (ts *TokenService) IssueAccess(subject, role, email string) (string, error) {
	now := ts.now()
	claims := &accessJWTClaims{
		Role:  role,
		Email: email,
		Type:  models.AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.accessKey)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}
	return signed, nil
}

// IssueRefresh carries no role or email. The jti keeps two tokens minted in
// the same second distinct, which the hash-keyed store relies on.
func (ts *TokenService) IssueRefresh(subject string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.refreshTTL)
	claims := &refreshJWTClaims{
		Type: models.RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.refreshKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signed string: %w", err)
	}
	return signed, jwt.NewNumericDate(expiresAt).Time, nil
}

func (ts *TokenService) VerifyAccess(token string) (*models.AccessClaims, error) {
	claims := &accessJWTClaims{}
	if err := ts.parse(token, claims, ts.accessKey); err != nil {
		return nil, err
	}
	if claims.Type != models.AccessTokenType {
		return nil, ErrTokenTypeMismatch
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return &models.AccessClaims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		Email:     claims.Email,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (ts *TokenService) VerifyRefresh(token string) (*models.RefreshClaims, error) {
	claims := &refreshJWTClaims{}
	if err := ts.parse(token, claims, ts.refreshKey); err != nil {
		return nil, err
	}
	if claims.Type != models.RefreshTokenType {
		return nil, ErrTokenTypeMismatch
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return &models.RefreshClaims{
		Subject:   claims.Subject,
		Type:      claims.Type,
		Issuer:    claims.Issuer,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (ts *TokenService) parse(token string, claims jwt.Claims, key []byte) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}

	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return key, nil
		},
		opts...,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// HashToken is the irreversible form under which refresh tokens are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
