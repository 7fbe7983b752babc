package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/internal/notifications"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, recipientID uuid.UUID, limit int) ([]notifications.NotificationDTO, error)
	markReadFn    func(ctx context.Context, recipientID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, recipientID uuid.UUID) (int64, error)
	unread        int64
}

func (s *testNotificationsService) List(ctx context.Context, recipientID uuid.UUID, limit int) ([]notifications.NotificationDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, recipientID, limit)
	}
	return nil, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, recipientID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, recipientID)
	}
	return 0, nil
}

func (s *testNotificationsService) UnreadCount(context.Context, uuid.UUID) (int64, error) {
	return s.unread, nil
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	principal := testPrincipal()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(_ context.Context, rid, nid uuid.UUID) error {
			called = true
			if rid != principal.ID {
				t.Fatalf("unexpected recipient %s", rid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return nil
		},
	}

	req := newRequest(http.MethodPatch, "/api/interactions/notifications/"+notificationID.String()+"/read", "", principal,
		map[string]string{"notificationId": notificationID.String()})
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var body map[string]bool
	decodeData(t, resp, &body)
	if !body["success"] {
		t.Fatalf("expected success true, got %v", body)
	}
}

func TestMarkNotificationReadForeignIsNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	id := uuid.NewString()
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, newRequest(http.MethodPatch, "/", "", testPrincipal(), map[string]string{"notificationId": id}))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListNotificationsRejectsLimitOverCap(t *testing.T) {
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, newRequest(http.MethodGet, "/api/interactions/notifications?limit=500", "", testPrincipal(), nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListNotificationsDefaultsToCap(t *testing.T) {
	var gotLimit int
	svc := &testNotificationsService{listFn: func(_ context.Context, _ uuid.UUID, limit int) ([]notifications.NotificationDTO, error) {
		gotLimit = limit
		return []notifications.NotificationDTO{}, nil
	}}
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/interactions/notifications", "", testPrincipal(), nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotLimit != notifications.MaxListLimit {
		t.Fatalf("expected limit %d, got %d", notifications.MaxListLimit, gotLimit)
	}
}

func TestUnreadNotificationCount(t *testing.T) {
	resp := httptest.NewRecorder()
	UnreadNotificationCount(&testNotificationsService{unread: 3}, testLogger())(resp, newRequest(http.MethodGet, "/", "", testPrincipal(), nil))

	var body map[string]int64
	decodeData(t, resp, &body)
	if body["count"] != 3 {
		t.Fatalf("expected count 3, got %v", body)
	}
}
