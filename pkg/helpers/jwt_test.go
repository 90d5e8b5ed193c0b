package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	tok, exp, err := m.GenerateToken("a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	tok, _, err := m.GenerateToken("a@x.com")
	require.NoError(t, err)

	_, err = m.ParseToken(tok)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-one", time.Hour)
	verifier := NewJWTManager("secret-two", time.Hour)

	tok, _, err := issuer.GenerateToken("a@x.com")
	require.NoError(t, err)
	_, err = verifier.ParseToken(tok)
	assert.Error(t, err)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	tok, _, err := m.GenerateToken("a@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// altered payload
	tampered := parts[0] + "." + "eyJlbWFpbCI6ImJAeC5jb20ifQ" + "." + parts[2]
	_, err = m.ParseToken(tampered)
	assert.Error(t, err)

	// altered signature
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = m.ParseToken(parts[0] + "." + parts[1] + "." + string(sig))
	assert.Error(t, err)

	// garbage
	_, err = m.ParseToken("not-a-token")
	assert.Error(t, err)
}
