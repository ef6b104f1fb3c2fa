// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity returns the signed-in user and true, or nil and false for an
// anonymous caller. A context user with a malformed id counts as anonymous.
func Identity(r *http.Request) (*auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil {
		return nil, false
	}
	if u.UserID().IsZero() {
		return nil, false
	}
	return u, true
}

// UserCtx returns the caller's role, name, ObjectID and a found flag.
// Anonymous callers get "", "", NilObjectID, false.
func UserCtx(r *http.Request) (role models.Role, name string, userID primitive.ObjectID, ok bool) {
	u, ok := Identity(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	return u.Role, u.Name, u.UserID(), true
}

// IsLoggedIn reports whether there is a valid user in the request context.
func IsLoggedIn(r *http.Request) bool {
	_, ok := Identity(r)
	return ok
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	u, ok := Identity(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}

// CanModify reports whether the caller owns the resource or is an admin.
func CanModify(r *http.Request, owner primitive.ObjectID) bool {
	u, ok := Identity(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return !owner.IsZero() && u.UserID() == owner
	default:
		return false
	}
}

// RequireUser returns the caller or an Unauthorized error.
func RequireUser(r *http.Request) (*auth.SessionUser, error) {
	u, ok := Identity(r)
	if !ok {
		return nil, apperr.Unauthorized("")
	}
	return u, nil
}

// RequireAdmin returns the caller when they are an admin, Unauthorized when
// anonymous and Forbidden otherwise.
func RequireAdmin(r *http.Request) (*auth.SessionUser, error) {
	u, err := RequireUser(r)
	if err != nil {
		return nil, err
	}
	if !IsAdmin(r) {
		return nil, apperr.Forbidden("")
	}
	return u, nil
}

// RequireOwnerOrAdmin is CanModify as an error: 401 when anonymous, 403
// when the caller is neither owner nor admin.
func RequireOwnerOrAdmin(r *http.Request, owner primitive.ObjectID) (*auth.SessionUser, error) {
	u, err := RequireUser(r)
	if err != nil {
		return nil, err
	}
	if !CanModify(r, owner) {
		return nil, apperr.Forbidden("")
	}
	return u, nil
}
