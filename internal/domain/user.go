package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is the identity that authenticates against the service.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Subject returns the token subject for the user.
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}

// NormalizeEmail canonicalizes a login handle before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
