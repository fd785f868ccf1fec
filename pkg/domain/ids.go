// Package domain defines the typed identifiers shared across the portal.
// Typed IDs make cross-entity assignment a compile error: a UserID can never
// be passed where an LGAID is expected.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "lgac/pkg/domain-errors"
)

// UserID identifies a portal account (citizen, officer or admin).
type UserID uuid.UUID

// LGAID identifies a Local Government Area.
type LGAID uuid.UUID

// ApplicationID identifies a certificate application. Applications are
// numbered from a database sequence because the certificate number embeds a
// six-digit zero-padded serial.
type ApplicationID int64

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id LGAID) String() string  { return uuid.UUID(id).String() }
func (id LGAID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id ApplicationID) Int64() int64 { return int64(id) }
func (id ApplicationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MarshalText renders the id as its canonical UUID string so typed ids
// serialize readably in JSON payloads and audit events.
func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id LGAID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *LGAID) UnmarshalText(b []byte) error {
	parsed, err := ParseLGAID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID mints a random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewLGAID mints a random LGA id.
func NewLGAID() LGAID { return LGAID(uuid.New()) }

// ParseUserID parses and validates a user id at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseLGAID parses and validates an LGA id at a trust boundary.
func ParseLGAID(s string) (LGAID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return LGAID{}, err
	}
	return LGAID(u), nil
}

// ParseApplicationID parses a positive application serial.
func ParseApplicationID(s string) (ApplicationID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid application id")
	}
	return ApplicationID(n), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return u, nil
}
