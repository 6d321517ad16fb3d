package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastConfig = Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerify(t *testing.T) {
	encoded, err := HashPasswordWithConfig("s3cretpass", fastConfig)
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$v=19$m=1024,t=1,p=1$")

	ok, err := VerifyPassword("s3cretpass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, err := HashPasswordWithConfig("same", fastConfig)
	require.NoError(t, err)
	b, err := HashPasswordWithConfig("same", fastConfig)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy1"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("legacy1", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("other1", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_InvalidHash(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestHasher(t *testing.T) {
	h := NewHasher(fastConfig)
	encoded, err := h.Hash("p4ssword")
	require.NoError(t, err)
	assert.True(t, h.Verify("p4ssword", encoded))
	assert.False(t, h.Verify("nope", encoded))
	assert.False(t, h.Verify("p4ssword", "garbage"))
}
