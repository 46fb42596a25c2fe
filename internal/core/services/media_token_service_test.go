package services

import (
	"testing"
	"time"

	"chatlink/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTokenService_RoomTokenCarriesClaims(t *testing.T) {
	svc := NewMediaTokenService("media-secret", time.Hour)

	token, err := svc.RoomToken("alice", "room-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &MediaClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("media-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, domain.UserID("alice"), claims.UserID)
	assert.Equal(t, "room-1", claims.RoomID)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestMediaTokenService_ReusesCachedToken(t *testing.T) {
	svc := NewMediaTokenService("media-secret", time.Hour)

	first, err := svc.RoomToken("alice", "room-1")
	require.NoError(t, err)
	second, err := svc.RoomToken("alice", "room-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMediaTokenService_DistinctTokensPerUserAndRoom(t *testing.T) {
	svc := NewMediaTokenService("media-secret", time.Hour)

	aliceRoom1, err := svc.RoomToken("alice", "room-1")
	require.NoError(t, err)
	aliceRoom2, err := svc.RoomToken("alice", "room-2")
	require.NoError(t, err)
	bobRoom1, err := svc.RoomToken("bob", "room-1")
	require.NoError(t, err)

	assert.NotEqual(t, aliceRoom1, aliceRoom2)
	assert.NotEqual(t, aliceRoom1, bobRoom1)
}

func TestMediaTokenService_RequiresUserAndRoom(t *testing.T) {
	svc := NewMediaTokenService("media-secret", time.Hour)

	_, err := svc.RoomToken("", "room-1")
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)

	_, err = svc.RoomToken("alice", "")
	assert.Error(t, err)
}
