package lga

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "lgac/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	t.Run("active LGA requires code", func(t *testing.T) {
		l := LGA{Name: "Akure South", Active: true}
		assert.True(t, dErrors.HasCode(l.Validate(), dErrors.CodeValidation))

		l.Code = "AKS"
		assert.NoError(t, l.Validate())
	})

	t.Run("inactive LGA may lack code", func(t *testing.T) {
		l := LGA{Name: "Akure South"}
		assert.NoError(t, l.Validate())
	})
}

func TestValidateCertificateAssets(t *testing.T) {
	complete := LGA{
		Name:                 "Akure South",
		Code:                 "AKS",
		SealKey:              "lga/seals/aks.png",
		HLGASignatureKey:     "lga/signatures/hlga/aks.png",
		ChairmanSignatureKey: "lga/signatures/chairman/aks.png",
	}
	assert.NoError(t, complete.ValidateCertificateAssets())

	t.Run("names every missing asset", func(t *testing.T) {
		l := LGA{Name: "Akure South", Code: "AKS"}
		err := l.ValidateCertificateAssets()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "official seal")
		assert.Contains(t, err.Error(), "HLGA signature")
		assert.Contains(t, err.Error(), "chairman signature")
	})
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Akure South":     "akure-south",
		"  Ese-Odo  ":     "ese-odo",
		"Ifedore":         "ifedore",
		"Ondo West (New)": "ondo-west-new",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
