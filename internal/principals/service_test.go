package principals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loredrop/campus-backend/pkg/db/dbtest"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestCreateIfAbsentIgnoresDuplicateEmail(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	first := &models.Principal{Email: "Asha@IITK.ac.in", DisplayName: "asha"}
	created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, enums.PrincipalRoleStudent, first.Role)

	second := &models.Principal{Email: "asha@iitk.ac.in", DisplayName: "other"}
	created, err = repo.CreateIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.FindByEmail(ctx, "ASHA@iitk.ac.in")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "asha", stored.DisplayName)
}

func TestFederatedIDIsUnique(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.CreateIfAbsent(ctx, &models.Principal{Email: "a@iitk.ac.in", FederatedID: strPtr("sub-1")})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, &models.Principal{Email: "b@iitk.ac.in", FederatedID: strPtr("sub-1")})
	require.NoError(t, err)
	assert.False(t, created)

	// principals without a federated id never collide
	for _, email := range []string{"c@iitk.ac.in", "d@iitk.ac.in"} {
		created, err = repo.CreateIfAbsent(ctx, &models.Principal{Email: email})
		require.NoError(t, err)
		assert.True(t, created)
	}
}

func TestServiceUpdateProfile(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	p := &models.Principal{Email: "ravi@iitk.ac.in", DisplayName: "ravi"}
	_, err = repo.CreateIfAbsent(ctx, p)
	require.NoError(t, err)

	out, err := svc.UpdateProfile(ctx, p.ID, ProfileUpdate{
		DisplayName: strPtr("  Ravi K "),
		RollNo:      strPtr("210123"),
		Branch:      strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", out.DisplayName)
	require.NotNil(t, out.RollNo)
	assert.Equal(t, "210123", *out.RollNo)
	assert.Nil(t, out.Branch)
	assert.Equal(t, "ravi@iitk.ac.in", out.Email)
	assert.Equal(t, enums.PrincipalRoleStudent, out.Role)

	_, err = svc.UpdateProfile(ctx, p.ID, ProfileUpdate{DisplayName: strPtr("   ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProfile(ctx, uuid.New(), ProfileUpdate{Name: strPtr("ghost")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceMeNotFound(t *testing.T) {
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
