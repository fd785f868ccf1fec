package identity

import (
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

// Role checks are pure predicates so every lifecycle operation can gate
// itself with one call and no routing-framework involvement.

func IsCitizen(u *User) bool    { return u != nil && u.Role == RoleCitizen }
func IsLGAOfficer(u *User) bool { return u != nil && u.Role == RoleLGAOfficer }
func IsAdmin(u *User) bool      { return u != nil && u.Role == RoleAdmin }

// IsLGAStaff covers LGA operational staff: officers and admins.
func IsLGAStaff(u *User) bool { return IsLGAOfficer(u) || IsAdmin(u) }

// ErrForbidden is the single opaque authorization failure. Operations return
// it unchanged so callers cannot distinguish why access was denied.
func ErrForbidden() error {
	return dErrors.New(dErrors.CodeForbidden, "you do not have access to this resource")
}

// RequireCitizen gates citizen-only operations.
func RequireCitizen(u *User) error {
	if !IsCitizen(u) {
		return ErrForbidden()
	}
	return nil
}

// RequireOwner gates operations on citizen-owned resources.
func RequireOwner(u *User, owner id.UserID) error {
	if u == nil || u.ID != owner {
		return ErrForbidden()
	}
	return nil
}

// RequireOfficerFor gates review operations: the caller must be an LGA
// officer whose assignment exactly equals the application's LGA. Admins are
// rejected here; they use a separate administrative interface.
func RequireOfficerFor(u *User, lga id.LGAID) error {
	if !IsLGAOfficer(u) {
		return ErrForbidden()
	}
	if u.LGA.IsNil() || u.LGA != lga {
		return ErrForbidden()
	}
	return nil
}

// RequireAdmin gates administrative operations.
func RequireAdmin(u *User) error {
	if !IsAdmin(u) {
		return ErrForbidden()
	}
	return nil
}
