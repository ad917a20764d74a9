package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	password := "0perator-S3ttlement!"
	hash, err := svc.Hash(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v="))

	match, err := svc.Verify(password, hash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestArgon2HashService_VerifyWrongPassword(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("correct-password")
	require.NoError(t, err)

	match, err := svc.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	hash1, err := svc.Hash("same-password")
	require.NoError(t, err)
	hash2, err := svc.Hash("same-password")
	require.NoError(t, err)

	// A fresh salt per Hash call means identical passwords never collide.
	assert.NotEqual(t, hash1, hash2)
}

func TestArgon2HashService_VerifyMalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	_, err := svc.Verify("password", "not-a-valid-hash")
	assert.Error(t, err)
}

func TestArgon2HashService_VerifyRejectsWrongVersion(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("password")
	require.NoError(t, err)
	tampered := strings.Replace(hash, "$v=19$", "$v=18$", 1)

	_, err = svc.Verify("password", tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestArgon2HashService_HashCarriesCostParams(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("test")
	require.NoError(t, err)

	// Parameters travel with the hash so they can be raised later without
	// locking out existing operators.
	assert.Contains(t, hash, "m=65536,t=1,p=4")
}
