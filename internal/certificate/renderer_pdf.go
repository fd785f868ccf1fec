package certificate

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"lgac/internal/application"
	"lgac/internal/lga"
)

// A4 portrait, point units. The layout is absolute: everything fits on one
// page and auto page breaks are disabled.
const (
	marginPt   = 20
	photoWPt   = 100
	photoHPt   = 120
	qrSizePt   = 120
	sigLineWPt = 180
)

// governmentGreen is the accent used for the border, title and photo frame.
var governmentGreen = [3]int{0, 102, 51}

// PDFRenderer renders the official certificate layout.
type PDFRenderer struct {
	stateName string
}

func NewPDFRenderer(stateName string) *PDFRenderer {
	return &PDFRenderer{stateName: stateName}
}

func (r *PDFRenderer) Render(app *application.Application, area *lga.LGA, assets Assets, verifyURL string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	r.watermark(pdf, pageW, pageH)

	pdf.SetDrawColor(governmentGreen[0], governmentGreen[1], governmentGreen[2])
	pdf.SetLineWidth(2)
	pdf.Rect(marginPt, marginPt, pageW-2*marginPt, pageH-2*marginPt, "D")

	r.letterhead(pdf, pageW, area)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(governmentGreen[0], governmentGreen[1], governmentGreen[2])
	centerText(pdf, pageW, 180, "LOCAL GOVERNMENT ATTESTATION CERTIFICATE")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(60, 212, fmt.Sprintf("Certificate No: %s", app.CertificateNumber))
	pdf.Text(60, 230, fmt.Sprintf("Date of Issue: %s", longDate(app.ApprovedAt)))

	r.photoFrame(pdf, pageW, assets.PassportPhoto)
	r.detailRows(pdf, app)

	pdf.SetFont("Helvetica", "I", 10)
	centerText(pdf, pageW, 488,
		"This certificate is issued following due verification of records and is valid for official use only.")

	r.signatureBlock(pdf, 60, 560, assets.HLGASignature,
		"Head of Local Government Administration", area.Name+" Local Government")
	r.signatureBlock(pdf, 60, 650, assets.ChairmanSignature,
		"Executive Chairman", area.Name+" Local Government")

	r.seal(pdf, pageW, assets.Seal)
	r.verification(pdf, pageW, pageH, verifyURL)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(110, 110, 110)
	centerText(pdf, pageW, pageH-40,
		fmt.Sprintf("Verification Hash: %s | Generated electronically by LGAC Portal.", app.CertificateHash))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate %s: %w", app.CertificateNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) watermark(pdf *fpdf.Fpdf, pageW, pageH float64) {
	pdf.SetFont("Helvetica", "B", 60)
	pdf.SetTextColor(235, 235, 235)
	pdf.TransformBegin()
	pdf.TransformRotate(45, pageW/2, pageH/2)
	pdf.Text(pageW/2-pdf.GetStringWidth("ORIGINAL COPY")/2, pageH/2, "ORIGINAL COPY")
	pdf.TransformEnd()
	pdf.SetTextColor(0, 0, 0)
}

func (r *PDFRenderer) letterhead(pdf *fpdf.Fpdf, pageW float64, area *lga.LGA) {
	pdf.SetFont("Helvetica", "B", 14)
	centerText(pdf, pageW, 80, "FEDERAL REPUBLIC OF NIGERIA")
	pdf.SetFont("Helvetica", "B", 13)
	centerText(pdf, pageW, 100, fmt.Sprintf("%s STATE GOVERNMENT", strings.ToUpper(r.stateName)))
	pdf.SetFont("Helvetica", "B", 11)
	centerText(pdf, pageW, 118, "MINISTRY OF LOCAL GOVERNMENT & CHIEFTAINCY AFFAIRS")
	pdf.SetFont("Helvetica", "B", 12)
	centerText(pdf, pageW, 138, fmt.Sprintf("%s LOCAL GOVERNMENT COUNCIL", strings.ToUpper(area.Name)))
}

func (r *PDFRenderer) photoFrame(pdf *fpdf.Fpdf, pageW float64, photo []byte) {
	x := pageW - marginPt - 30 - photoWPt
	pdf.SetLineWidth(1.5)
	pdf.Rect(x, 200, photoWPt, photoHPt, "D")
	drawImage(pdf, "passport_photo", photo, x+3, 203, photoWPt-6, photoHPt-6)
}

func (r *PDFRenderer) detailRows(pdf *fpdf.Fpdf, app *application.Application) {
	rows := []struct {
		label string
		value string
	}{
		{"Full Name", app.FullName},
		{"Date of Birth", longDate(app.DateOfBirth)},
		{"Place of Birth", app.PlaceOfBirth},
		{"NIN", app.NIN},
		{"Home Town", app.HomeTown},
		{"Family Compound", app.FamilyCompound},
		{"Father's Name", app.FatherName},
		{"Mother's Name", app.MotherName},
	}
	y := 272.0
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(60, y, row.label+":")
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(200, y, row.value)
		y += 24
	}
}

func (r *PDFRenderer) signatureBlock(pdf *fpdf.Fpdf, x, lineY float64, signature []byte, role, council string) {
	drawImage(pdf, "signature_"+role, signature, x+20, lineY-48, 120, 42)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.8)
	pdf.Line(x, lineY, x+sigLineWPt, lineY)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(x, lineY+14, role)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(x, lineY+27, council)
}

func (r *PDFRenderer) seal(pdf *fpdf.Fpdf, pageW float64, seal []byte) {
	x := pageW - marginPt - 40 - 100
	drawImage(pdf, "official_seal", seal, x, 520, 100, 100)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(x+50-pdf.GetStringWidth("OFFICIAL SEAL")/2, 636, "OFFICIAL SEAL")
}

func (r *PDFRenderer) verification(pdf *fpdf.Fpdf, pageW, pageH float64, verifyURL string) {
	png, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return
	}
	drawImage(pdf, "verification_qr", png, pageW-marginPt-20-qrSizePt, pageH-70-qrSizePt, qrSizePt, qrSizePt)
}

// drawImage embeds an image if its bytes are present and decodable, and
// silently skips it otherwise. A renderer error from a corrupt upload is
// cleared so the rest of the document still renders.
func drawImage(pdf *fpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	if len(data) == 0 {
		return
	}
	kind := imageType(data)
	if kind == "" {
		return
	}
	opts := fpdf.ImageOptions{ImageType: kind}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}

func centerText(pdf *fpdf.Fpdf, pageW, y float64, s string) {
	pdf.Text(pageW/2-pdf.GetStringWidth(s)/2, y, s)
}

// longDate renders "2 January 2006", the style used on the printed document.
func longDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), t.Month(), t.Year())
}
