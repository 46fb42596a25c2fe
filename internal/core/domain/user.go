package domain

import "time"

type UserID string

type User struct {
	ID        UserID
	Username  string
	Email     string
	CreatedAt time.Time
}

// ConnectionID identifies one live client connection. A reconnecting user
// gets a fresh ConnectionID while keeping the same UserID.
type ConnectionID string
