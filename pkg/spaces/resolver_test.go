package spaces

import (
	"testing"

	"notespace-backend/pkg/database"
	"notespace-backend/pkg/models"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.DatabaseInterface {
	t.Helper()
	return database.NewLocalDatabaseAt(t.TempDir())
}

func TestVerifyUserCanModifySpace_NotFound(t *testing.T) {
	r := NewResolver(newTestDB(t))

	_, err := r.VerifyUserCanModifySpace("u1", "no-such-space")
	require.ErrorIs(t, err, ErrSpaceNotFound)
}

func TestVerifyUserCanModifySpace_PersonalOwner(t *testing.T) {
	db := newTestDB(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))

	r := NewResolver(db)
	access, err := r.VerifyUserCanModifySpace("u1", space.ID)
	require.NoError(t, err)
	require.Equal(t, space.ID, access.Space.ID)
	// Owner access carries no justifying membership row
	require.Nil(t, access.OrgMembership)
	require.Nil(t, access.SpaceMembership)
}

func TestVerifyUserCanModifySpace_PersonalStranger(t *testing.T) {
	db := newTestDB(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))

	r := NewResolver(db)
	_, err := r.VerifyUserCanModifySpace("u2", space.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestVerifyUserCanModifySpace_SharedMember(t *testing.T) {
	db := newTestDB(t)
	space := &models.Space{UserID: "u1", Name: "Notes", Slug: "notes"}
	require.NoError(t, db.CreateSpace(space))
	require.NoError(t, db.PutSpaceMembership(&models.SpaceMembership{SpaceID: space.ID, UserID: "u2"}))

	r := NewResolver(db)
	access, err := r.VerifyUserCanModifySpace("u2", space.ID)
	require.NoError(t, err)
	require.NotNil(t, access.SpaceMembership)
	require.Equal(t, "u2", access.SpaceMembership.UserID)
	require.Nil(t, access.OrgMembership)
}

func TestVerifyUserCanModifySpace_OrgMember(t *testing.T) {
	db := newTestDB(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u9"}
	require.NoError(t, db.CreateOrganization(org))
	require.NoError(t, db.AddOrganizationMember(&models.OrganizationMembership{
		OrganizationID: org.ID, UserID: "u2", Role: models.RoleMember,
	}))
	// user_id points at the historical creator, who is not u2
	space := &models.Space{OrganizationID: org.ID, UserID: "u1", Name: "Shared", Slug: "shared"}
	require.NoError(t, db.CreateSpace(space))

	r := NewResolver(db)
	access, err := r.VerifyUserCanModifySpace("u2", space.ID)
	require.NoError(t, err)
	require.Equal(t, space.ID, access.Space.ID)
	require.NotNil(t, access.OrgMembership)
	require.Equal(t, org.ID, access.OrgMembership.OrganizationID)
	require.Nil(t, access.SpaceMembership)
}

func TestVerifyUserCanModifySpace_OrgOwnershipShortCircuits(t *testing.T) {
	db := newTestDB(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u9"}
	require.NoError(t, db.CreateOrganization(org))
	// u1 created the space but is not an org member; the coincidental
	// user_id match must not grant access
	space := &models.Space{OrganizationID: org.ID, UserID: "u1", Name: "Shared", Slug: "shared"}
	require.NoError(t, db.CreateSpace(space))

	r := NewResolver(db)
	_, err := r.VerifyUserCanModifySpace("u1", space.ID)
	require.ErrorIs(t, err, ErrAccessDenied)

	// Even a direct space membership row does not bypass the org check
	require.NoError(t, db.PutSpaceMembership(&models.SpaceMembership{SpaceID: space.ID, UserID: "u1"}))
	_, err = r.VerifyUserCanModifySpace("u1", space.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestVerifyUserCanModifySpace_OrgNonMember(t *testing.T) {
	db := newTestDB(t)
	org := &models.Organization{Name: "Acme", OwnerID: "u9"}
	require.NoError(t, db.CreateOrganization(org))
	space := &models.Space{OrganizationID: org.ID, Name: "Shared", Slug: "shared"}
	require.NoError(t, db.CreateSpace(space))

	r := NewResolver(db)
	_, err := r.VerifyUserCanModifySpace("u3", space.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}
