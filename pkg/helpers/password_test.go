package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordVerifies(t *testing.T) {
	h, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(h, "pw1"))
	assert.False(t, CompareHashAndPassword(h, "pw2"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.True(t, CompareHashAndPassword(a, "same-password"))
	assert.True(t, CompareHashAndPassword(b, "same-password"))
}

func TestCompareRejectsGarbageDigest(t *testing.T) {
	assert.False(t, CompareHashAndPassword("not-a-bcrypt-digest", "pw"))
}
