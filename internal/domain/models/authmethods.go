// internal/domain/models/authmethods.go
package models

// Supported authentication methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// AllAuthMethods lists every method a user record may carry.
var AllAuthMethods = []string{AuthPassword, AuthGoogle}

// IsValidAuthMethod checks if a value is a valid auth method.
func IsValidAuthMethod(value string) bool {
	for _, m := range AllAuthMethods {
		if m == value {
			return true
		}
	}
	return false
}
