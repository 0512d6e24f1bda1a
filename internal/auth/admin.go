package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Admin is the single operator account allowed to mutate the catalog.
type Admin struct {
	User         string
	PasswordHash []byte
}

// NewAdmin trims user; passwordHash is a bcrypt hash as printed by -hash-password.
func NewAdmin(user, passwordHash string) Admin {
	return Admin{
		User:         strings.TrimSpace(user),
		PasswordHash: []byte(passwordHash),
	}
}

// Verify returns ErrInvalidCredentials unless user and password match. An admin
// without a user or hash never verifies.
func (a Admin) Verify(user, password string) error {
	user = strings.TrimSpace(user)
	if a.User == "" || len(a.PasswordHash) == 0 {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
