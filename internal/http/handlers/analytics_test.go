package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/veereshswamy995/campus-events/internal/cache"
	"github.com/veereshswamy995/campus-events/internal/domain/analytics"
	"github.com/veereshswamy995/campus-events/internal/http/handlers"
)

type fakeAnalyticsRepo struct {
	calls      int
	perEventFn func(ctx context.Context) ([]analytics.PerEventStats, error)
}

func (f *fakeAnalyticsRepo) PerEvent(ctx context.Context) ([]analytics.PerEventStats, error) {
	f.calls++
	if f.perEventFn != nil {
		return f.perEventFn(ctx)
	}
	return []analytics.PerEventStats{}, nil
}

func TestAnalyticsHandler(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		perEventFn: func(ctx context.Context) ([]analytics.PerEventStats, error) {
			return []analytics.PerEventStats{
				{EventID: 1, EventTitle: "Hack Night", MaxParticipants: 50, Registered: 3, CheckedIn: 1, AttendanceRate: 33.3},
				{EventID: 2, EventTitle: "Fest", MaxParticipants: 200, Registered: 0, CheckedIn: 0, AttendanceRate: 0},
			}, nil
		},
	}

	h := handlers.NewAnalyticsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/api/analytics", h.PerEvent)

	w := doJSON(t, r, http.MethodGet, "/api/analytics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var stats []analytics.PerEventStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("rows = %d, want 2", len(stats))
	}
	if stats[0].AttendanceRate != 33.3 {
		t.Fatalf("attendance_rate = %v, want 33.3", stats[0].AttendanceRate)
	}
	if stats[1].AttendanceRate != 0 {
		t.Fatalf("empty event rate = %v, want 0", stats[1].AttendanceRate)
	}
}

func TestAnalyticsHandlerRepoError(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		perEventFn: func(ctx context.Context) ([]analytics.PerEventStats, error) {
			return nil, errors.New("db down")
		},
	}

	h := handlers.NewAnalyticsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/api/analytics", h.PerEvent)

	w := doJSON(t, r, http.MethodGet, "/api/analytics", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}

func TestAnalyticsHandlerServesFromCache(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		perEventFn: func(ctx context.Context) ([]analytics.PerEventStats, error) {
			return []analytics.PerEventStats{{EventID: 1}}, nil
		},
	}

	h := handlers.NewAnalyticsHandler(repo, cache.New(time.Minute))
	r := setupRouter(http.MethodGet, "/api/analytics", h.PerEvent)

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodGet, "/api/analytics", "")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}

	if repo.calls != 1 {
		t.Fatalf("repo hit %d times, want 1 (cached)", repo.calls)
	}
}
