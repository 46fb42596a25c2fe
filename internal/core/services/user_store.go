package services

import (
	"errors"
	"sync"

	"chatlink/internal/core/domain"
	"chatlink/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore keeps registered accounts so login verifies credentials instead
// of minting an identity for whoever asks.
type UserStore interface {
	Register(username, email, password string) (domain.UserID, error)
	Authenticate(username, password string) (domain.UserID, error)
}

type userRecord struct {
	id           domain.UserID
	email        string
	passwordHash []byte
}

// InMemoryUserStore is the single-node account store. Accounts live for the
// lifetime of the process; a persistent backend can replace it behind the
// UserStore interface without touching the handlers.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]userRecord
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users: make(map[string]userRecord),
	}
}

func (s *InMemoryUserStore) Register(username, email, password string) (domain.UserID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return "", ErrUserExists
	}

	id := domain.UserID(utils.GenerateUserID())
	s.users[username] = userRecord{
		id:           id,
		email:        email,
		passwordHash: hash,
	}
	return id, nil
}

func (s *InMemoryUserStore) Authenticate(username, password string) (domain.UserID, error) {
	s.mu.RLock()
	rec, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return rec.id, nil
}
