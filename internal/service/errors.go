package service

import (
	"errors"
	"fmt"
)

var (
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrHashFormat         = errors.New("malformed password hash")
	ErrHashCost           = errors.New("bcrypt cost out of range")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshTokenReuse  = errors.New("refresh token reuse detected")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")

	ErrEmailTaken  = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrDeviceTaken = fmt.Errorf("%w: device already registered", ErrConflict)
)
