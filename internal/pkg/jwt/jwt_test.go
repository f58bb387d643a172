package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "1h")

	token, expiresAt, err := svc.GenerateAccessToken("ops@example.com", RoleOperator)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, expiresAt)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", decoded.Subject())

	role, ok := decoded.Get("role")
	assert.True(t, ok)
	assert.Equal(t, RoleOperator, role)

	typ, ok := decoded.Get("type")
	assert.True(t, ok)
	assert.Equal(t, "access", typ)
}

func TestJWTService_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "soon")

	_, _, err := svc.GenerateAccessToken("ops@example.com", RoleOperator)
	assert.Error(t, err)
}
