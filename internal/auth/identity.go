// Package auth decides who may change what. Identities are passed in
// explicitly by callers; nothing here reads request or global state.
package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/course-portal-api/internal/models"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// Identity is the authenticated caller. A nil *Identity is an anonymous one.
type Identity struct {
	UserID string
	Name   string
	Role   models.Role
}

// FromClaims converts verified token claims into an Identity.
func FromClaims(claims *models.JWTClaims) *Identity {
	if claims == nil || claims.UserID == "" {
		return nil
	}
	return &Identity{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

// Elevated reports whether the identity is staff.
func (i *Identity) Elevated() bool {
	return i != nil && i.Role.Elevated()
}

// Owns reports whether owner names this identity.
func (i *Identity) Owns(owner string) bool {
	if i == nil || owner == "" {
		return false
	}
	return owner == i.UserID
}

// Policy selects the rule applied to mutating requests on a resource.
type Policy int

const (
	// PolicyAdmin restricts writes to teachers and admins.
	PolicyAdmin Policy = iota
	// PolicyAuthenticated lets any signed-in identity write.
	PolicyAuthenticated
	// PolicyOwner lets the author or staff write.
	PolicyOwner
)

// Authorize decides whether identity may perform method. Reads always pass.
// owner is the stored author of the target row; it is empty on create, in
// which case only the presence of an identity is checked.
func Authorize(method string, identity *Identity, policy Policy, owner string) error {
	if isRead(method) {
		return nil
	}
	if identity == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}

	switch policy {
	case PolicyAdmin:
		if !identity.Elevated() {
			return appErrors.Clone(appErrors.ErrForbidden, "teacher or admin role required")
		}
	case PolicyOwner:
		if owner != "" && !identity.Owns(owner) && !identity.Elevated() {
			return appErrors.Clone(appErrors.ErrForbidden, "only the author or staff may modify this entry")
		}
	}
	return nil
}

func isRead(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
