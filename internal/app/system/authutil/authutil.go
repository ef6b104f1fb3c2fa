// internal/app/system/authutil/authutil.go
// Package authutil resolves registration input into a storable user and
// owns the password policy.
package authutil

import (
	"errors"
	"unicode/utf8"

	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/domain/models"
)

const MaxNameLength = 100

var (
	ErrNameRequired  = errors.New("Name is required")
	ErrNameTooLong   = errors.New("Name must be at most 100 characters")
	ErrEmailRequired = errors.New("Email is required")
	ErrInvalidEmail  = errors.New("Please enter a valid email address")
)

// Registration is the raw sign-up input.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Resolve validates r and returns a new password-method user with role
// user and the password hashed. Role is never taken from input.
func Resolve(r Registration) (models.User, error) {
	name := normalize.Name(r.Name)
	email := normalize.Email(r.Email)

	switch {
	case name == "":
		return models.User{}, ErrNameRequired
	case utf8.RuneCountInString(name) > MaxNameLength:
		return models.User{}, ErrNameTooLong
	case email == "":
		return models.User{}, ErrEmailRequired
	case !inputval.IsValidEmail(email):
		return models.User{}, ErrInvalidEmail
	}
	if err := ValidatePassword(r.Password); err != nil {
		return models.User{}, err
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		Name:         name,
		Email:        email,
		AuthMethod:   models.AuthPassword,
		PasswordHash: &hash,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}, nil
}

// IsPolicyError reports whether err came from Resolve's input checks rather
// than from hashing.
func IsPolicyError(err error) bool {
	for _, e := range []error{
		ErrNameRequired, ErrNameTooLong, ErrEmailRequired, ErrInvalidEmail,
		ErrPasswordTooShort, ErrPasswordTooLong, ErrPasswordCommon,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
