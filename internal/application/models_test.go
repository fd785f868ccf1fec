package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

func completeApplication(status Status) *Application {
	return &Application{
		ID:               42,
		ApplicantID:      id.NewUserID(),
		LGAID:            id.NewLGAID(),
		Status:           status,
		FullName:         "Adaeze Okon",
		Email:            "adaeze@example.com",
		Phone:            "+2348011111111",
		NIN:              "12345678901",
		DateOfBirth:      time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		HomeTown:         "Akure",
		FamilyCompound:   "Okon Compound",
		FatherName:       "Emeka Okon",
		MotherName:       "Ngozi Okon",
		Purpose:          "Employment verification",
		PassportPhotoKey: "passports/42.jpg",
		CreatedAt:        time.Now(),
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusSubmitted},
		{StatusSubmitted, StatusPaid},
		{StatusPaid, StatusInReview},
		{StatusPaid, StatusWithdrawn},
		{StatusInReview, StatusApproved},
		{StatusInReview, StatusRejected},
		{StatusInReview, StatusWithdrawn},
	}
	for _, tc := range allowed {
		require.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusDraft, StatusPaid},
		{StatusDraft, StatusWithdrawn},
		{StatusSubmitted, StatusWithdrawn},
		{StatusSubmitted, StatusInReview},
		{StatusPaid, StatusApproved},
		{StatusApproved, StatusWithdrawn},
		{StatusRejected, StatusInReview},
		{StatusWithdrawn, StatusPaid},
		{StatusInReview, StatusPaid},
	}
	for _, tc := range denied {
		require.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestValidate(t *testing.T) {
	t.Run("drafts may be incomplete", func(t *testing.T) {
		app := &Application{
			ApplicantID: id.NewUserID(),
			LGAID:       id.NewLGAID(),
			Status:      StatusDraft,
		}
		require.NoError(t, app.Validate())
	})

	t.Run("always requires an LGA", func(t *testing.T) {
		app := completeApplication(StatusDraft)
		app.LGAID = id.LGAID{}
		err := app.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("submitted applications need a complete snapshot", func(t *testing.T) {
		app := completeApplication(StatusSubmitted)
		app.FullName = ""
		app.NIN = ""
		err := app.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		require.Contains(t, dErrors.DescriptionOf(err), "full name")
		require.Contains(t, dErrors.DescriptionOf(err), "NIN")
	})

	t.Run("submitted applications need a passport photo", func(t *testing.T) {
		app := completeApplication(StatusPaid)
		app.PassportPhotoKey = ""
		err := app.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("complete non-draft applications pass", func(t *testing.T) {
		for _, status := range []Status{StatusSubmitted, StatusPaid, StatusInReview, StatusApproved} {
			require.NoError(t, completeApplication(status).Validate())
		}
	})
}

func TestValidateBiographics(t *testing.T) {
	t.Run("names every missing field", func(t *testing.T) {
		app := completeApplication(StatusDraft)
		app.DateOfBirth = time.Time{}
		app.Purpose = "  "
		err := app.ValidateBiographics()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		require.Contains(t, dErrors.DescriptionOf(err), "date of birth")
		require.Contains(t, dErrors.DescriptionOf(err), "purpose")
	})

	t.Run("passes when complete", func(t *testing.T) {
		require.NoError(t, completeApplication(StatusDraft).ValidateBiographics())
	})
}
