package memberships

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loredrop/campus-backend/pkg/db/dbtest"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

type fakeRepository struct {
	Repository
	hasRoleFn func(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error)
}

func (f *fakeRepository) HasRole(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	return f.hasRoleFn(ctx, principalID, organizationID, roles...)
}

func TestAuthorize(t *testing.T) {
	principal, org := uuid.New(), uuid.New()
	repo := &fakeRepository{hasRoleFn: func(_ context.Context, p, o uuid.UUID, roles ...enums.MemberRole) (bool, error) {
		if p != principal || o != org {
			return false, nil
		}
		for _, r := range roles {
			if r == enums.MemberRoleModerator {
				return true, nil
			}
		}
		return false, nil
	}}
	svc, err := NewService(repo, NewSuperAdmins(nil))
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, principal, org, enums.EventCreatorRoles...))

	err = svc.Authorize(ctx, principal, org, enums.RequestModeratorRoles...)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = svc.Authorize(ctx, uuid.New(), org, enums.EventCreatorRoles...)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = svc.Authorize(ctx, principal, org)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestAuthorizeStoreFailure(t *testing.T) {
	repo := &fakeRepository{hasRoleFn: func(context.Context, uuid.UUID, uuid.UUID, ...enums.MemberRole) (bool, error) {
		return false, errors.New("connection reset")
	}}
	svc, err := NewService(repo, NewSuperAdmins(nil))
	require.NoError(t, err)

	err = svc.Authorize(context.Background(), uuid.New(), uuid.New(), enums.MemberRoleAdmin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSuperAdmins(t *testing.T) {
	admins := NewSuperAdmins([]string{" Root@IITK.ac.in", "", "ops@iitk.ac.in", "root@iitk.ac.in"})
	assert.Equal(t, 2, admins.Len())
	assert.True(t, admins.Contains("ROOT@iitk.ac.in"))
	assert.False(t, admins.Contains("student@iitk.ac.in"))
	assert.Equal(t, []string{"ops@iitk.ac.in", "root@iitk.ac.in"}, admins.Emails())
}

func TestRepositoryMembershipFlow(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	principal := &models.Principal{Email: "asha@iitk.ac.in", DisplayName: "asha"}
	require.NoError(t, client.DB().Create(principal).Error)
	org := &models.Organization{Name: "Programming Club", Slug: "pclub"}
	require.NoError(t, client.DB().Create(org).Error)

	created, err := repo.Create(ctx, org.ID, principal.ID, enums.MemberRoleMember)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, org.ID, principal.ID, enums.MemberRoleAdmin)
	require.NoError(t, err)
	assert.False(t, created, "the pair is unique")

	ok, err := repo.HasRole(ctx, principal.ID, org.ID, enums.MemberRoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsMember(ctx, principal.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(ctx, principal.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Create(ctx, org.ID, principal.ID, enums.MemberRole("owner"))
	assert.Error(t, err)
}
