// Package auth handles registration, login, logout and bearer-token
// authentication for the API.
package auth

import "time"

// User represents a registered account.
// The json:"-" tag on HashedPassword keeps the hash out of every response; the
// plaintext password is never stored at all.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccessToken is a persisted bearer token. Only the SHA-256 digest of the
// token is stored; the plaintext is returned to the client once at issue time.
// Deleting the row invalidates the token permanently.
type AccessToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	CreatedAt time.Time
}
