package services

import (
	"fmt"
	"time"

	"chatlink/internal/core/domain"
	"chatlink/pkg/cache"

	"github.com/golang-jwt/jwt/v5"
)

// MediaTokenService mints short-lived room tokens for the external media
// transport service that carries the actual audio/video streams once both
// sides of a call reach the active phase. The coordinator never touches the
// media bitstream itself.
type MediaTokenService interface {
	RoomToken(userID domain.UserID, roomID string) (string, error)
}

type MediaClaims struct {
	UserID domain.UserID `json:"user_id"`
	RoomID string        `json:"room_id"`
	jwt.RegisteredClaims
}

type mediaTokenService struct {
	secret   []byte
	tokenTTL time.Duration
	// Minted tokens are cached until shortly before expiry so repeated
	// requests for the same room do not churn signatures.
	tokens *cache.Cache
}

func NewMediaTokenService(secret string, tokenTTL time.Duration) MediaTokenService {
	cacheTTL := tokenTTL - tokenTTL/10
	if cacheTTL <= 0 {
		cacheTTL = tokenTTL
	}
	return &mediaTokenService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		tokens:   cache.NewCache(cacheTTL),
	}
}

func (s *mediaTokenService) RoomToken(userID domain.UserID, roomID string) (string, error) {
	if userID == "" {
		return "", domain.ErrMissingIdentity
	}
	if roomID == "" {
		return "", fmt.Errorf("room id is required")
	}

	key := string(userID) + ":" + roomID
	if cached, ok := s.tokens.Get(key); ok {
		if token, ok := cached.(string); ok {
			return token, nil
		}
	}

	claims := &MediaClaims{
		UserID: userID,
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign media token: %w", err)
	}

	s.tokens.Set(key, token)
	return token, nil
}
