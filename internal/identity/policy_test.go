package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

func TestRolePredicates(t *testing.T) {
	citizen := &User{Role: RoleCitizen}
	officer := &User{Role: RoleLGAOfficer, LGA: id.NewLGAID()}
	admin := &User{Role: RoleAdmin}

	assert.True(t, IsCitizen(citizen))
	assert.False(t, IsCitizen(officer))

	assert.True(t, IsLGAOfficer(officer))
	assert.False(t, IsLGAOfficer(admin))

	assert.True(t, IsAdmin(admin))

	assert.True(t, IsLGAStaff(officer))
	assert.True(t, IsLGAStaff(admin))
	assert.False(t, IsLGAStaff(citizen))

	assert.False(t, IsCitizen(nil), "nil principal holds no role")
}

func TestRequireOfficerFor(t *testing.T) {
	lgaX := id.NewLGAID()
	lgaY := id.NewLGAID()

	t.Run("allows matching officer", func(t *testing.T) {
		officer := &User{Role: RoleLGAOfficer, LGA: lgaX}
		assert.NoError(t, RequireOfficerFor(officer, lgaX))
	})

	t.Run("rejects cross-LGA officer", func(t *testing.T) {
		officer := &User{Role: RoleLGAOfficer, LGA: lgaY}
		err := RequireOfficerFor(officer, lgaX)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("rejects officer without assignment", func(t *testing.T) {
		officer := &User{Role: RoleLGAOfficer}
		err := RequireOfficerFor(officer, lgaX)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("rejects admin at the review layer", func(t *testing.T) {
		admin := &User{Role: RoleAdmin}
		err := RequireOfficerFor(admin, lgaX)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestRequireOwner(t *testing.T) {
	owner := &User{ID: id.NewUserID(), Role: RoleCitizen}
	other := &User{ID: id.NewUserID(), Role: RoleCitizen}

	assert.NoError(t, RequireOwner(owner, owner.ID))
	assert.True(t, dErrors.HasCode(RequireOwner(other, owner.ID), dErrors.CodeForbidden))
}

func TestUserValidate_OfficerLGAInvariant(t *testing.T) {
	base := User{
		FullName: "Adaeze Obi",
		Email:    "adaeze@example.com",
		Phone:    "+2348012345678",
	}

	t.Run("officer without LGA rejected", func(t *testing.T) {
		u := base
		u.Role = RoleLGAOfficer
		err := u.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("citizen with LGA rejected", func(t *testing.T) {
		u := base
		u.Role = RoleCitizen
		u.LGA = id.NewLGAID()
		err := u.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("officer with LGA accepted", func(t *testing.T) {
		u := base
		u.Role = RoleLGAOfficer
		u.LGA = id.NewLGAID()
		assert.NoError(t, u.Validate())
	})

	t.Run("malformed NIN rejected", func(t *testing.T) {
		u := base
		u.Role = RoleCitizen
		u.NIN = "123"
		err := u.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
