package service

import (
	"testing"
	"time"

	apperrors "realty-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, 24*time.Hour, zap.NewNop())

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.False(t, claims.IsRefreshToken)

	claims, err = svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, claims.IsRefreshToken)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", -time.Minute, time.Hour, zap.NewNop())
	access, _, err := svc.GenerateTokens(1)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	other := NewJWTService("other", time.Hour, time.Hour, zap.NewNop())
	foreign, _, err := other.GenerateTokens(1)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
