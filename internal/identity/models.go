// Package identity holds the portal's account model and the role/access gate.
package identity

import (
	"regexp"
	"strings"
	"time"

	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

// Role is the principal's system role.
type Role string

const (
	RoleCitizen    Role = "CITIZEN"
	RoleLGAOfficer Role = "LGA_OFFICER"
	RoleAdmin      Role = "ADMIN"
)

var ninPattern = regexp.MustCompile(`^\d{11}$`)

// ValidNIN reports whether s is exactly eleven ASCII digits.
func ValidNIN(s string) bool {
	return ninPattern.MatchString(s)
}

// User is a portal account. LGA assignment is required iff the role is
// LGA_OFFICER; Validate enforces that on every mutation.
type User struct {
	ID           id.UserID
	FullName     string
	Email        string
	Phone        string
	NIN          string
	NINVerified  bool
	Role         Role
	LGA          id.LGAID
	PasswordHash string
	CreatedAt    time.Time
}

// Validate checks the account invariants before any persisted mutation.
func (u *User) Validate() error {
	var missing []string
	if strings.TrimSpace(u.FullName) == "" {
		missing = append(missing, "full name")
	}
	if strings.TrimSpace(u.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(u.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if u.NIN != "" && !ValidNIN(u.NIN) {
		return dErrors.New(dErrors.CodeValidation, "NIN must be exactly 11 digits")
	}
	switch u.Role {
	case RoleCitizen, RoleLGAOfficer, RoleAdmin:
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", u.Role)
	}
	if u.Role == RoleLGAOfficer && u.LGA.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "LGA officers must have an assigned LGA")
	}
	if u.Role != RoleLGAOfficer && !u.LGA.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "only LGA officers may carry an LGA assignment")
	}
	return nil
}
