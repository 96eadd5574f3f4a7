package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schoolhub/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "schoolhub-test")

	token, err := svc.GenerateAccessToken("u1", "teacher", "Ms Smith", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "Ms Smith", claims.Name)
	assert.Equal(t, "schoolhub-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "tokens carry a unique JTI")
}

func TestValidateRejections(t *testing.T) {
	svc := NewService("test-signing-key", "schoolhub-test")

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("u1", "teacher", "", -time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewService("different-key", "schoolhub-test")
		token, err := other.GenerateAccessToken("u1", "teacher", "", time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
