package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/seniorble/guardian/internal/models"
)

type identityContextKey struct{}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(models.Identity)
	return id, ok
}

// Gate turns an Authorization header into an identity-carrying context.
type Gate struct {
	tokens *TokenService
}

func NewGate(tokens *TokenService) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate returns a child of ctx carrying the caller's identity.
// Every failure is reported as ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, authHeader string) (context.Context, error) {
	token, ok := BearerToken(authHeader)
	if !ok {
		return ctx, ErrUnauthenticated
	}

	claims, err := g.tokens.VerifyAccess(token)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	return WithIdentity(ctx, models.Identity{
		ID:    claims.Subject,
		Role:  claims.Role,
		Email: claims.Email,
	}), nil
}

// OptionalAuthenticate never fails; a missing or bad token yields ctx unchanged.
func (g *Gate) OptionalAuthenticate(ctx context.Context, authHeader string) context.Context {
	authed, err := g.Authenticate(ctx, authHeader)
	if err != nil {
		return ctx
	}
	return authed
}

// RequireRole checks the identity attached by Authenticate.
func RequireRole(ctx context.Context, roles ...string) error {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	for _, r := range roles {
		if id.Role != "" && id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != models.MwBearerScheme || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
