// Package lga models Local Government Areas: the issuing authorities behind
// every certificate.
package lga

import (
	"strings"
	"time"

	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

// LGA is an issuing authority. The three branding asset keys reference images
// in document storage; an LGA cannot issue certificates until all three are
// present.
type LGA struct {
	ID   id.LGAID
	Name string
	// Slug is the certificate-safe identifier derived from Name. Stable once
	// assigned.
	Slug string
	// Code is the official short code embedded in certificate numbers.
	// Required while the LGA is active.
	Code   string
	Active bool

	SealKey              string
	HLGASignatureKey     string
	ChairmanSignatureKey string

	CreatedAt time.Time
}

// Validate enforces the activation invariant before any persisted mutation.
func (l *LGA) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "LGA name is required")
	}
	if l.Active && strings.TrimSpace(l.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "active LGAs must have an official code")
	}
	return nil
}

// ValidateCertificateAssets is the hard gate called before an LGA may be
// marked certificate-ready. It names every missing branding asset.
func (l *LGA) ValidateCertificateAssets() error {
	var missing []string
	if l.SealKey == "" {
		missing = append(missing, "official seal")
	}
	if l.HLGASignatureKey == "" {
		missing = append(missing, "HLGA signature")
	}
	if l.ChairmanSignatureKey == "" {
		missing = append(missing, "chairman signature")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation,
			"cannot issue certificates for %s, missing: %s", l.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Slugify derives the certificate-safe identifier from an LGA name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
