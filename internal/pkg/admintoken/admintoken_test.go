package admintoken

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tok, err := Generate("oncall", RoleAdmin, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Validate(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "oncall", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestValidate_Rejects(t *testing.T) {
	good, err := Generate("oncall", RoleAdmin, "secret", time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := Validate(good, "other")
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := Generate("oncall", RoleAdmin, "secret", -time.Minute)
		require.NoError(t, err)
		_, err = Validate(expired, "secret")
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("not admin", func(t *testing.T) {
		viewer, err := Generate("analyst", "viewer", "secret", time.Hour)
		require.NoError(t, err)
		_, err = Validate(viewer, "secret")
		assert.True(t, errors.Is(err, ErrForbidden))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Validate("not-a-jwt", "secret")
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = Validate(s, "secret")
		assert.Error(t, err)
	})
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := Generate("oncall", RoleAdmin, "", time.Hour)
	assert.Error(t, err)
}
