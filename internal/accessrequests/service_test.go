package accessrequests

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loredrop/campus-backend/internal/memberships"
	"github.com/loredrop/campus-backend/internal/organizations"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/dbtest"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox"
)

type fixture struct {
	svc     Service
	client  *db.Client
	members memberships.Repository
	org     models.Organization
	other   models.Organization
	admin   models.Principal
	student models.Principal
	root    models.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.New(t)
	conn := client.DB()

	f := &fixture{client: client}
	f.org = models.Organization{Name: "Programming Club", Slug: "pclub"}
	f.other = models.Organization{Name: "Dance Club", Slug: "dance"}
	orgs := organizations.NewRepository(conn)
	require.NoError(t, orgs.Create(ctx, &f.org))
	require.NoError(t, orgs.Create(ctx, &f.other))

	f.admin = models.Principal{Email: "admin@iitk.ac.in", DisplayName: "admin"}
	f.student = models.Principal{Email: "asha@iitk.ac.in", DisplayName: "asha"}
	f.root = models.Principal{Email: "root@iitk.ac.in", DisplayName: "root"}
	for _, p := range []*models.Principal{&f.admin, &f.student, &f.root} {
		require.NoError(t, conn.Create(p).Error)
	}

	f.members = memberships.NewRepository(conn)
	_, err := f.members.Create(ctx, f.org.ID, f.admin.ID, enums.MemberRoleAdmin)
	require.NoError(t, err)

	authz, err := memberships.NewService(f.members, memberships.NewSuperAdmins([]string{"root@iitk.ac.in"}))
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "accessrequests-test", Output: io.Discard})
	f.svc, err = NewService(ServiceParams{
		DB:            client,
		Requests:      NewRepository(conn),
		Memberships:   f.members,
		Authorizer:    authz,
		Organizations: orgs,
		Outbox:        outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:        logg,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) adminActor() Actor {
	return Actor{PrincipalID: f.admin.ID, Email: f.admin.Email}
}

func (f *fixture) rootActor() Actor {
	return Actor{PrincipalID: f.root.ID, Email: f.root.Email}
}

func TestRequestAccessEmitsOutboxEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccessRequestPending, req.Status)

	var rows []models.OutboxEvent
	require.NoError(t, f.client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventAccessRequestFiled, rows[0].EventType)
	assert.Equal(t, req.ID, rows[0].AggregateID)
}

func TestRequestAccessConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestAccess(ctx, f.admin.ID, f.org.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, alreadyMemberMessage, pkgerrors.As(err).Message())

	_, err = f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.Error(t, err)
	assert.Equal(t, alreadyPendingMessage, pkgerrors.As(err).Message())

	_, err = f.svc.RequestAccess(ctx, f.student.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentRequestsLeaveOnePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	}
	assert.Equal(t, 1, succeeded)
}

func TestApproveCreatesMembershipOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, err := f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)

	scope := f.org.ID
	approved, err := f.svc.Approve(ctx, f.adminActor(), req.ID, &scope)
	require.NoError(t, err)
	assert.Equal(t, enums.AccessRequestApproved, approved.Status)
	require.NotNil(t, approved.RespondedBy)
	assert.Equal(t, f.admin.ID, *approved.RespondedBy)
	assert.NotNil(t, approved.RespondedAt)

	member, err := f.members.IsMember(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)
	assert.True(t, member)

	_, err = f.svc.Approve(ctx, f.adminActor(), req.ID, &scope)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.Reject(ctx, f.rootActor(), req.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Membership{}).
		Where("organization_id = ? AND principal_id = ?", f.org.ID, f.student.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRejectLeavesNoMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, err := f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, f.rootActor(), req.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.AccessRequestRejected, rejected.Status)

	member, err := f.members.IsMember(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)
	assert.False(t, member)

	_, err = f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	assert.NoError(t, err, "a rejected request does not block a new one")
}

func TestRespondScopeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, err := f.svc.RequestAccess(ctx, f.student.ID, f.other.ID)
	require.NoError(t, err)

	scope := f.org.ID
	_, err = f.svc.Approve(ctx, f.adminActor(), req.ID, &scope)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "request from another org is hidden")

	otherScope := f.other.ID
	_, err = f.svc.Approve(ctx, f.adminActor(), req.ID, &otherScope)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Approve(ctx, f.adminActor(), req.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Approve(ctx, f.rootActor(), uuid.New(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Approve(ctx, f.rootActor(), req.ID, &otherScope)
	assert.NoError(t, err)
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestAccess(ctx, f.student.ID, f.org.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestAccess(ctx, f.student.ID, f.other.ID)
	require.NoError(t, err)

	scoped, err := f.svc.ListPending(ctx, f.adminActor(), f.org.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "asha@iitk.ac.in", scoped[0].Requester.Email)
	assert.Equal(t, "Programming Club", scoped[0].OrganizationName)

	_, err = f.svc.ListAllPending(ctx, f.adminActor())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	all, err := f.svc.ListAllPending(ctx, f.rootActor())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].RequestedAt.Before(all[1].RequestedAt))
}
