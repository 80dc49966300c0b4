package service

import (
	"fmt"

	"room-booking-backend/internal/models"
)

// Authorizer applies the owner-or-staff and staff-only rules. With
// security disabled every check passes and bookings belong to the
// anonymous subject.
type Authorizer struct {
	enabled bool
}

func NewAuthorizer(enabled bool) *Authorizer {
	return &Authorizer{enabled: enabled}
}

func (a *Authorizer) Enabled() bool {
	return a.enabled
}

// Subject returns the identifier recorded as a booking's owner
func (a *Authorizer) Subject(p models.Principal) string {
	if !a.enabled || p.Subject == "" {
		return models.AnonymousSubject
	}
	return p.Subject
}

// RequireStaff rejects non-staff principals
func (a *Authorizer) RequireStaff(p models.Principal) error {
	if !a.enabled {
		return nil
	}
	if p.Subject == "" {
		return models.ErrUnauthenticated
	}
	if !p.IsStaff() {
		return fmt.Errorf("%w: staff role required", models.ErrForbidden)
	}
	return nil
}

// RequireOwnerOrStaff rejects principals that neither own the resource
// nor hold the staff role
func (a *Authorizer) RequireOwnerOrStaff(p models.Principal, owner string) error {
	if !a.enabled {
		return nil
	}
	if p.Subject == "" {
		return models.ErrUnauthenticated
	}
	if p.IsStaff() || p.Subject == owner {
		return nil
	}
	return fmt.Errorf("%w: only the owner or staff may modify this booking", models.ErrForbidden)
}
