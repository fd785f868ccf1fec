package certificate

import (
	"lgac/internal/application"
	"lgac/internal/lga"
)

// Assets are the images embedded in a certificate. Any slice may be nil;
// the renderer leaves the matching slot empty rather than failing, because a
// missing signature scan must never block an approved certificate.
type Assets struct {
	PassportPhoto     []byte
	Seal              []byte
	HLGASignature     []byte
	ChairmanSignature []byte
}

// Renderer produces the certificate document bytes. The application must
// already carry its certificate number and hash.
type Renderer interface {
	Render(app *application.Application, area *lga.LGA, assets Assets, verifyURL string) ([]byte, error)
}
