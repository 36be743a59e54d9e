package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seniorble/guardian/internal/util"
)

func TestNewPasswordHasher_CostRange(t *testing.T) {
	for _, cost := range []int{0, 4, util.MinBcryptCost - 1, util.MaxBcryptCost + 1, 31} {
		_, err := NewPasswordHasher(cost)
		require.ErrorIs(t, err, ErrHashCost, "cost %d", cost)
	}

	h, err := NewPasswordHasher(util.MinBcryptCost)
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h, err := NewPasswordHasher(util.MinBcryptCost)
	require.NoError(t, err)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, util.MinBcryptCost, cost)

	ok, err := h.Verify("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h, err := NewPasswordHasher(util.MinBcryptCost)
	require.NoError(t, err)

	ok, err := h.Verify("whatever", "plain-text-in-the-db")
	require.ErrorIs(t, err, ErrHashFormat)
	assert.False(t, ok)

	h.VerifyDummy("whatever")
}
