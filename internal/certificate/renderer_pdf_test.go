package certificate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lgac/internal/application"
	"lgac/internal/lga"
)

func renderFixtures() (*application.Application, *lga.LGA) {
	app := &application.Application{
		ID:                42,
		Status:            application.StatusApproved,
		FullName:          "Adaeze Okon",
		Email:             "adaeze@example.com",
		Phone:             "+2348011111111",
		NIN:               "12345678901",
		DateOfBirth:       time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		PlaceOfBirth:      "Akure",
		HomeTown:          "Akure",
		FamilyCompound:    "Okon Compound",
		FatherName:        "Emeka Okon",
		MotherName:        "Ngozi Okon",
		Purpose:           "Employment verification",
		CertificateNumber: "LGAC/AKS/2024/000042",
		CertificateHash:   "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		ApprovedAt:        time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC),
		CreatedAt:         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	area := &lga.LGA{Name: "Akure South", Slug: "akure-south", Code: "AKS", Active: true}
	return app, area
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 0, G: 102, B: 51, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPDFRenderer(t *testing.T) {
	renderer := NewPDFRenderer("Ondo")

	t.Run("produces a PDF with no assets", func(t *testing.T) {
		app, area := renderFixtures()
		out, err := renderer.Render(app, area, Assets{}, "https://portal.example.gov.ng/verify/deadbeef")
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})

	t.Run("embeds provided images", func(t *testing.T) {
		app, area := renderFixtures()
		img := tinyPNG(t)
		assets := Assets{
			PassportPhoto:     img,
			Seal:              img,
			HLGASignature:     img,
			ChairmanSignature: img,
		}
		out, err := renderer.Render(app, area, assets, "https://portal.example.gov.ng/verify/deadbeef")
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})

	t.Run("skips undecodable image bytes", func(t *testing.T) {
		app, area := renderFixtures()
		assets := Assets{Seal: []byte("this is not an image")}
		out, err := renderer.Render(app, area, assets, "https://portal.example.gov.ng/verify/deadbeef")
		require.NoError(t, err)
		require.NotEmpty(t, out)
	})
}

func TestLongDate(t *testing.T) {
	require.Equal(t, "2 June 2024", longDate(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "", longDate(time.Time{}))
}
