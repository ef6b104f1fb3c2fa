// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters")
	ErrPasswordCommon   = errors.New("This password is too common, please choose a different one")
)

var commonPasswords = toSet(
	"12345678", "123456789", "1234567890", "11111111", "00000000", "87654321",
	"password", "password1", "password123", "qwerty123", "qwertyuiop",
	"iloveyou", "letmein1", "welcome1", "admin123",
	"bismillah", "bismillah1", "allahuakbar", "alhamdulillah", "ramadan123",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ValidatePassword checks length and rejects well-known passwords.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// BurnCompare does the work of a failed CheckPassword so an unknown email
// takes as long to reject as a wrong password.
func BurnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("noorhub-unknown-account"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
