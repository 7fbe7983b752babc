package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/internal/events"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/pagination"
)

type testEventsService struct {
	events.Service
	feedViewer *uuid.UUID
	feedOrg    *uuid.UUID
	feedPage   pagination.Params
	createErr  error
	created    *events.CreateEventRequest
}

func (s *testEventsService) Feed(_ context.Context, viewer, org *uuid.UUID, page pagination.Params) (*events.FeedResult, error) {
	s.feedViewer, s.feedOrg, s.feedPage = viewer, org, page
	return &events.FeedResult{Data: []events.EventDTO{}, Meta: page.MetaFor(0)}, nil
}

func (s *testEventsService) Create(_ context.Context, _ uuid.UUID, input events.CreateEventRequest) (*events.EventDTO, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &input
	return &events.EventDTO{ID: uuid.New(), Title: input.Title}, nil
}

func TestEventsFeedAnonymous(t *testing.T) {
	svc := &testEventsService{}
	resp := httptest.NewRecorder()
	EventsFeed(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/events/feed?page=2&limit=500", "", nil, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if svc.feedViewer != nil {
		t.Fatal("anonymous feed must not carry a viewer")
	}
	if svc.feedPage.Page != 2 || svc.feedPage.Limit != pagination.MaxLimit {
		t.Fatalf("unexpected page params %+v", svc.feedPage)
	}
}

func TestEventsFeedWithViewerAndOrganization(t *testing.T) {
	svc := &testEventsService{}
	principal := testPrincipal()
	orgID := uuid.New()
	resp := httptest.NewRecorder()
	EventsFeed(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/events/feed?organizationId="+orgID.String(), "", principal, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if svc.feedViewer == nil || *svc.feedViewer != principal.ID {
		t.Fatalf("expected viewer %s", principal.ID)
	}
	if svc.feedOrg == nil || *svc.feedOrg != orgID {
		t.Fatalf("expected organization filter %s", orgID)
	}

	resp = httptest.NewRecorder()
	EventsFeed(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/events/feed?organizationId=bad", "", nil, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed organizationId, got %d", resp.Code)
	}
}

func TestCreateEventCreated(t *testing.T) {
	svc := &testEventsService{}
	body := `{"title":"Hack night","description":"<p>bring laptops</p>","organizationId":"` + uuid.NewString() + `","dateTime":"2026-11-01T18:00:00Z","venue":"LHC"}`
	resp := httptest.NewRecorder()
	CreateEvent(svc, testLogger())(resp, newRequest(http.MethodPost, "/api/events", body, testPrincipal(), nil))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil || svc.created.Venue != "LHC" {
		t.Fatalf("expected request forwarded, got %+v", svc.created)
	}
}

func TestCreateEventForbiddenForNonMember(t *testing.T) {
	svc := &testEventsService{createErr: pkgerrors.New(pkgerrors.CodeForbidden, "must be an approved member of this organization")}
	body := `{"title":"Hack night","description":"x","organizationId":"` + uuid.NewString() + `","dateTime":"2026-11-01T18:00:00Z","venue":"LHC"}`
	resp := httptest.NewRecorder()
	CreateEvent(svc, testLogger())(resp, newRequest(http.MethodPost, "/api/events", body, testPrincipal(), nil))

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}
