package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/internal/infrastructure/monitor"
	"github.com/fastygo/collab/internal/middleware"
	"github.com/fastygo/collab/pkg/httpcontext"
	"github.com/fastygo/collab/repository/memory"
	deadlineUC "github.com/fastygo/collab/usecase/deadline"
	invitationUC "github.com/fastygo/collab/usecase/invitation"
	notificationUC "github.com/fastygo/collab/usecase/notification"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

func newRequest(method, userID string, body string, params map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	if userID != "" {
		ctx.Request.Header.Set(middleware.HeaderUserID, userID)
	}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	for k, v := range params {
		ctx.SetUserValue(k, v)
	}
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, ctx.Response.Body())
	}
	return env
}

type nopSink struct{}

func (nopSink) Emit(context.Context, *domain.Notification) (bool, error) { return true, nil }

func newInvitationHandler() *InvitationHandler {
	store := memory.New()
	store.PutProject(domain.Project{ID: "p1", Title: "Apollo", OwnerID: "owner"})
	uc := invitationUC.New(store, store, store, nopSink{}, nil, 0)
	return NewInvitationHandler(uc, httpcontext.NewAdapter(time.Second), nil)
}

func TestInvitationFlow(t *testing.T) {
	h := newInvitationHandler()
	params := map[string]string{"id": "p1"}

	ctx := newRequest(http.MethodPost, "owner", `{"email":"Bob@Example.com"}`, params)
	h.Create(ctx)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var inv domain.Invitation
	if err := json.Unmarshal(decode(t, ctx).Data, &inv); err != nil {
		t.Fatalf("decode invitation: %v", err)
	}
	if inv.Email != "bob@example.com" || inv.Status != domain.InvitationPending {
		t.Fatalf("unexpected invitation %+v", inv)
	}

	ctx = newRequest(http.MethodPost, "owner", `{"email":"bob@example.com"}`, params)
	h.Create(ctx)
	if env := decode(t, ctx); ctx.Response.StatusCode() != http.StatusConflict || env.Error != "already invited" {
		t.Fatalf("duplicate invite: status %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	accept := map[string]string{"id": inv.ID}
	ctx = newRequest(http.MethodPost, "bob", "", accept)
	h.Accept(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ctx = newRequest(http.MethodPost, "bob", "", accept)
	h.Accept(ctx)
	if env := decode(t, ctx); ctx.Response.StatusCode() != http.StatusConflict || env.Code != string(domain.ErrCodeConflict) {
		t.Fatalf("second accept: status %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ctx = newRequest(http.MethodPost, "bob", "", map[string]string{"id": "missing"})
	h.Decline(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("decline missing: status %d", ctx.Response.StatusCode())
	}
}

func TestInvitationCreate_BadInput(t *testing.T) {
	h := newInvitationHandler()

	ctx := newRequest(http.MethodPost, "owner", `{`, map[string]string{"id": "p1"})
	h.Create(ctx)
	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("malformed body: status %d", ctx.Response.StatusCode())
	}

	ctx = newRequest(http.MethodPost, "owner", `{"email":"nope"}`, map[string]string{"id": "p1"})
	h.Create(ctx)
	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("invalid email: status %d", ctx.Response.StatusCode())
	}
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	h := newInvitationHandler()
	ctx := newRequest(http.MethodPost, "", `{"email":"bob@example.com"}`, map[string]string{"id": "p1"})
	h.Create(ctx)
	if ctx.Response.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", ctx.Response.StatusCode())
	}
}

func TestListMine_UsesEmailHeader(t *testing.T) {
	h := newInvitationHandler()
	ctx := newRequest(http.MethodPost, "owner", `{"email":"bob@example.com"}`, map[string]string{"id": "p1"})
	h.Create(ctx)

	ctx = newRequest(http.MethodGet, "bob", "", nil)
	ctx.Request.Header.Set(middleware.HeaderUserEmail, "BOB@example.com")
	h.ListMine(ctx)
	var list []domain.Invitation
	if err := json.Unmarshal(decode(t, ctx).Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if ctx.Response.StatusCode() != http.StatusOK || len(list) != 1 {
		t.Fatalf("status %d, list %+v", ctx.Response.StatusCode(), list)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrInvalidEmail, http.StatusBadRequest},
		{domain.ErrProjectNotFound, http.StatusNotFound},
		{domain.ErrDuplicatePendingInvitation, http.StatusConflict},
		{domain.Unavailable("get project", errors.New("conn refused")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if status, _ := mapError(tt.err); status != tt.status {
			t.Errorf("mapError(%v) = %d, want %d", tt.err, status, tt.status)
		}
	}
}

func TestRespondError_HidesStoreCause(t *testing.T) {
	h := newBaseHandler(nil, nil)
	ctx := newRequest(http.MethodGet, "alice", "", nil)
	h.respondError(ctx, context.Background(), domain.Unavailable("list notifications", errors.New("password=secret")))

	env := decode(t, ctx)
	if ctx.Response.StatusCode() != http.StatusServiceUnavailable || env.Error != "temporarily unavailable, retry later" {
		t.Fatalf("unexpected response %d %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
}

func TestNotificationList(t *testing.T) {
	store := memory.New()
	for i := 0; i < 3; i++ {
		_ = store.InsertNotification(context.Background(), &domain.Notification{
			UserID:  "alice",
			Type:    domain.NotificationProjectUpdate,
			Message: "update",
		})
	}
	h := NewNotificationHandler(notificationUC.New(store, nil, 0), nil, nil)

	ctx := newRequest(http.MethodGet, "alice", "", nil)
	ctx.Request.SetRequestURI("/api/v1/notifications?limit=2")
	h.List(ctx)

	env := decode(t, ctx)
	var items []domain.Notification
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	var meta struct {
		Limit  int `json:"limit"`
		Unread int `json:"unread"`
	}
	if err := json.Unmarshal(env.Meta, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if len(items) != 2 || meta.Limit != 2 || meta.Unread != 3 {
		t.Fatalf("items %d, meta %+v", len(items), meta)
	}

	ctx = newRequest(http.MethodPost, "bob", "", map[string]string{"id": items[0].ID})
	h.MarkRead(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("marking another user's notification: status %d", ctx.Response.StatusCode())
	}
}

type denyThrottle struct{}

func (denyThrottle) Acquire(context.Context, string, time.Duration) (bool, error) { return false, nil }

func TestDeadlineScan_Throttled(t *testing.T) {
	store := memory.New()
	uc := deadlineUC.New(store, store, nopSink{}, denyThrottle{}, nil, deadlineUC.Config{ThrottleTTL: time.Minute})
	h := NewDeadlineHandler(uc, nil, nil)

	ctx := newRequest(http.MethodPost, "alice", "", nil)
	h.Scan(ctx)
	if ctx.Response.StatusCode() != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", ctx.Response.StatusCode())
	}
}

type fakeStatus struct {
	online bool
}

func (f fakeStatus) GetStatus() monitor.Status {
	return monitor.Status{StoreDriver: "postgres", PostgreSQL: f.online, Outbox: true}
}

func (f fakeStatus) IsOnline() bool { return f.online }

func TestHealthCheck(t *testing.T) {
	ctx := newRequest(http.MethodGet, "", "", nil)
	NewHealthHandler(fakeStatus{online: true}, nil, nil).Check(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("online: status %d", ctx.Response.StatusCode())
	}

	ctx = newRequest(http.MethodGet, "", "", nil)
	NewHealthHandler(fakeStatus{}, nil, nil).Check(ctx)
	if ctx.Response.StatusCode() != http.StatusServiceUnavailable || decode(t, ctx).Code != "DEGRADED" {
		t.Fatalf("offline: status %d", ctx.Response.StatusCode())
	}
}
