// Package certificate turns approved applications into immutable, publicly
// verifiable certificate documents.
package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	id "lgac/pkg/domain"
)

// Number builds the official certificate number. The serial is the
// application's database id, zero-padded to six digits; the year is the year
// the application was created, not the year of approval.
func Number(lgaCode string, year int, appID id.ApplicationID) string {
	return fmt.Sprintf("LGAC/%s/%d/%06d", lgaCode, year, appID.Int64())
}

// ContentHash derives the public verification key: a SHA-256 digest over the
// pipe-joined application id, certificate number and applicant id. It is
// deterministic and reproducible from the stored fields alone.
func ContentHash(appID id.ApplicationID, number string, applicant id.UserID) string {
	payload := fmt.Sprintf("%d|%s|%s", appID.Int64(), number, applicant)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// DocumentPath is where the rendered certificate lives in document storage.
func DocumentPath(appID id.ApplicationID, hash string) string {
	return fmt.Sprintf("certificates/lgac_%d_%s.pdf", appID.Int64(), hash[:12])
}

// VerificationURL is the public link encoded into the certificate's QR code.
func VerificationURL(siteURL, hash string) string {
	return fmt.Sprintf("%s/verify/%s", siteURL, hash)
}
