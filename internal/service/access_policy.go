package service

import (
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

// AccessPolicy decides who may act on scheduling records.
type AccessPolicy struct{}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// RequireActor fails with UNAUTHORIZED when no identity is attached.
func (p *AccessPolicy) RequireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// RequireAdmin fails unless the actor is an administrator.
func (p *AccessPolicy) RequireAdmin(actor *models.JWTClaims) error {
	if err := p.RequireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator role required")
	}
	return nil
}

// CanManage reports whether actor may change a record owned by ownerID.
func (p *AccessPolicy) CanManage(actor *models.JWTClaims, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || (actor.UserID != "" && actor.UserID == ownerID)
}

// CanView also lets the instructor of a session read it.
func (p *AccessPolicy) CanView(actor *models.JWTClaims, ownerID string, instructorUserID *string) bool {
	if p.CanManage(actor, ownerID) {
		return true
	}
	return actor != nil && actor.Role == models.RoleInstructor && instructorUserID != nil && *instructorUserID == actor.UserID
}

// SubjectFor resolves whose behalf a request acts on. Only administrators
// may act for another user.
func (p *AccessPolicy) SubjectFor(actor *models.JWTClaims, requested string) (string, error) {
	if err := p.RequireActor(actor); err != nil {
		return "", err
	}
	if requested == "" || requested == actor.UserID {
		return actor.UserID, nil
	}
	if !actor.IsAdmin() {
		return "", appErrors.Clone(appErrors.ErrForbidden, "cannot act on behalf of another user")
	}
	return requested, nil
}
