// Package application owns the certificate application lifecycle: the status
// state machine, the identity snapshot taken at submission, and the
// certificate metadata assigned at approval.
package application

import (
	"strings"
	"time"

	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

// Status is the application's lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusPaid      Status = "PAID"
	StatusInReview  Status = "IN_REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusWithdrawn || s == StatusRejected
}

// transitions holds the forward edges of the lifecycle. WITHDRAWN is a side
// exit from the paid-for states only; nothing ever moves backward.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusPaid},
	StatusPaid:      {StatusInReview, StatusWithdrawn},
	StatusInReview:  {StatusApproved, StatusRejected, StatusWithdrawn},
}

// CanTransition reports whether from → to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application is a citizen's request for a certificate from one LGA.
//
// The snapshot fields are copied from the applicant's account at submission
// time and never re-derived afterward: they are the legal record of what was
// true when the citizen applied, regardless of later profile edits.
type Application struct {
	ID          id.ApplicationID
	ApplicantID id.UserID
	LGAID       id.LGAID
	Status      Status

	// Identity snapshot, frozen at submission.
	FullName string
	Email    string
	Phone    string
	NIN      string

	// Biographic details supplied by the applicant.
	DateOfBirth    time.Time
	PlaceOfBirth   string
	HomeTown       string
	FamilyCompound string
	FatherName     string
	MotherName     string
	Purpose        string

	// PassportPhotoKey references the uploaded photo in document storage.
	PassportPhotoKey string

	// Certificate metadata, assigned once at approval and immutable after.
	CertificateNumber string
	CertificateHash   string
	ApprovedAt        time.Time

	ReviewNotes string

	CreatedAt time.Time
}

// Validate enforces the lifecycle invariants before any persisted mutation.
// Once an application leaves DRAFT its identity snapshot and passport photo
// must be complete, so every later state carries a usable legal record.
func (a *Application) Validate() error {
	if a.LGAID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "local government selection is required")
	}
	if a.ApplicantID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "applicant is required")
	}
	if a.Status == StatusDraft {
		return nil
	}

	var missing []string
	if strings.TrimSpace(a.FullName) == "" {
		missing = append(missing, "full name")
	}
	if strings.TrimSpace(a.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(a.Phone) == "" {
		missing = append(missing, "phone number")
	}
	if strings.TrimSpace(a.NIN) == "" {
		missing = append(missing, "NIN")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation,
			"identity snapshot incomplete: %s", strings.Join(missing, ", "))
	}
	if a.PassportPhotoKey == "" {
		return dErrors.New(dErrors.CodeValidation, "passport photograph is required before submission")
	}
	return nil
}

// ValidateBiographics checks the applicant-supplied details required before
// submission.
func (a *Application) ValidateBiographics() error {
	var missing []string
	if a.DateOfBirth.IsZero() {
		missing = append(missing, "date of birth")
	}
	if strings.TrimSpace(a.HomeTown) == "" {
		missing = append(missing, "home town")
	}
	if strings.TrimSpace(a.FamilyCompound) == "" {
		missing = append(missing, "family compound")
	}
	if strings.TrimSpace(a.FatherName) == "" {
		missing = append(missing, "father's name")
	}
	if strings.TrimSpace(a.MotherName) == "" {
		missing = append(missing, "mother's name")
	}
	if strings.TrimSpace(a.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation,
			"application incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ErrInvalidTransition builds the taxonomy error for an illegal lifecycle move.
func ErrInvalidTransition(from, to Status) error {
	return dErrors.Newf(dErrors.CodeInvalidTransition,
		"cannot move application from %s to %s", from, to)
}
