package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/snapshot"
)

type fakeSource struct{}

func (f fakeSource) Channels(ctx context.Context) ([]snapshot.ChannelProperties, error) {
	return nil, nil
}
func (f fakeSource) Forwards(ctx context.Context, after, before time.Time) ([]snapshot.ForwardEvent, error) {
	return nil, nil
}
func (f fakeSource) Payments(ctx context.Context, after, before time.Time) ([]snapshot.PaymentEvent, error) {
	return nil, nil
}
func (f fakeSource) Snapshot(ctx context.Context, days uint32) (*snapshot.NodeSnapshot, error) {
	return &snapshot.NodeSnapshot{Days: days, TakenAt: time.Now().UTC()}, nil
}
func (f fakeSource) SubscribeChannels(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f fakeSource) SubscribeForwards(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f fakeSource) SubscribePayments(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f fakeSource) PruneFailedPayments(ctx context.Context, olderThan time.Duration) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := actions.New(actionsconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewServer(fakeSource{}, eng, 30)
}

func TestHandleHealthReturnsSuccess(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}
}

func TestHandleActionsReturnsEmptyListForEmptySnapshot(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/actions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}
	if list, ok := resp.Data.([]interface{}); resp.Data != nil && (!ok || len(list) != 0) {
		t.Fatalf("expected an empty action list, got %+v", resp.Data)
	}
}

func TestSetActionsUpdatesCachedLatest(t *testing.T) {
	srv := newTestServer(t)
	id := "c1"
	srv.SetActions([]actions.Action{{Entity: "channel", ID: &id, Priority: 5}})

	got := srv.snapshotActions()
	if len(got) != 1 || got[0].Priority != 5 {
		t.Fatalf("expected cached actions to reflect SetActions, got %+v", got)
	}
}
