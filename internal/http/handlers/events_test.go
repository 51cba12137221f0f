package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/http/handlers"
)

// keep gin quiet during tests

func init() {
	gin.SetMode(gin.TestMode)
}

// fake implementation of handlers.EventsRepository

type fakeEventsRepo struct {
	createFn func(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	listFn   func(ctx context.Context) ([]event.Event, error)
	getFn    func(ctx context.Context, id int64) (event.Event, error)
	updateFn func(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeEventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return event.Event{}, nil
}

func (f *fakeEventsRepo) List(ctx context.Context) ([]event.Event, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []event.Event{}, nil
}

func (f *fakeEventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return event.Event{}, nil
}

func (f *fakeEventsRepo) Update(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return event.Event{}, nil
}

func (f *fakeEventsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEventHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeEventsRepo)
		wantStatusCode int
		wantTime       string
	}{
		{
			name: "success_short_time_normalized",
			body: `{
				"title": "Campus Hack Night",
				"description": "24h of caffeine",
				"date": "2026-10-01",
				"time": "18:00",
				"location": "Main Hall",
				"type": "hackathon",
				"max_participants": 50
			}`,
			repoSetup: func(f *fakeEventsRepo) {
				f.createFn = func(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
					return event.Event{
						ID:              1,
						Title:           req.Title,
						Date:            req.Date,
						Time:            req.Time,
						Location:        req.Location,
						Type:            req.Type,
						MaxParticipants: req.Capacity(),
						CreatedAt:       now,
						UpdatedAt:       now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantTime:       "18:00:00",
		},
		{
			name:           "missing_required_fields",
			body:           `{"title": "Only a title"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "invalid_time_format",
			body: `{
				"title": "Tech Talk",
				"date": "2026-10-01",
				"time": "6pm",
				"location": "Room 4",
				"type": "tech_talk"
			}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "zero_max_participants",
			body: `{
				"title": "Tech Talk",
				"date": "2026-10-01",
				"time": "18:00",
				"location": "Room 4",
				"type": "tech_talk",
				"max_participants": 0
			}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "negative_max_participants",
			body: `{
				"title": "Tech Talk",
				"date": "2026-10-01",
				"time": "18:00",
				"location": "Room 4",
				"type": "tech_talk",
				"max_participants": -5
			}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{
				"title": "Tech Talk",
				"date": "2026-10-01",
				"time": "18:00",
				"location": "Room 4",
				"type": "tech_talk"
			}`,
			repoSetup: func(f *fakeEventsRepo) {
				f.createFn = func(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
					return event.Event{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeEventsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewEventsHandler(fakeRepo, nil)
			r := setupRouter(http.MethodPost, "/api/events", h.CreateEvent)

			w := doJSON(t, r, http.MethodPost, "/api/events", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantTime != "" {
				var resp event.Event
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.Time != tt.wantTime {
					t.Fatalf("time = %q, want %q", resp.Time, tt.wantTime)
				}
			}
		})
	}
}

func TestListEventsHandler(t *testing.T) {
	repo := &fakeEventsRepo{
		listFn: func(ctx context.Context) ([]event.Event, error) {
			return []event.Event{
				{ID: 2, Title: "Newest"},
				{ID: 1, Title: "Oldest"},
			}, nil
		},
	}

	h := handlers.NewEventsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/api/events", h.ListEvents)

	w := doJSON(t, r, http.MethodGet, "/api/events", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Count int           `json:"count"`
		Items []event.Event `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("count=%d items=%d, want 2/2", resp.Count, len(resp.Items))
	}
}

func TestUpdateEventHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		body           string
		repoSetup      func(*fakeEventsRepo)
		wantStatusCode int
	}{
		{
			name: "success_partial",
			url:  "/api/events/7",
			body: `{"title": "Renamed", "time": "10:30"}`,
			repoSetup: func(f *fakeEventsRepo) {
				f.updateFn = func(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error) {
					if id != 7 {
						return event.Event{}, errors.New("wrong id")
					}
					if req.Title == nil || *req.Title != "Renamed" {
						return event.Event{}, errors.New("title not passed")
					}
					if req.Time == nil || *req.Time != "10:30:00" {
						return event.Event{}, errors.New("time not normalized")
					}
					if req.Location != nil {
						return event.Event{}, errors.New("unset field must stay nil")
					}
					return event.Event{ID: id, Title: *req.Title, Time: *req.Time}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "bad_id",
			url:            "/api/events/abc",
			body:           `{"title": "x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_time",
			url:            "/api/events/7",
			body:           `{"time": "tea time"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/api/events/99",
			body: `{"title": "x"}`,
			repoSetup: func(f *fakeEventsRepo) {
				f.updateFn = func(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error) {
					return event.Event{}, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeEventsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewEventsHandler(fakeRepo, nil)
			r := setupRouter(http.MethodPut, "/api/events/:id", h.UpdateEvent)

			w := doJSON(t, r, http.MethodPut, tt.url, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteEventHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeEventsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/api/events/3",
			repoSetup: func(f *fakeEventsRepo) {
				f.deleteFn = func(ctx context.Context, id int64) error {
					if id != 3 {
						return errors.New("wrong id")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/api/events/99",
			repoSetup: func(f *fakeEventsRepo) {
				f.deleteFn = func(ctx context.Context, id int64) error {
					return event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "bad_id",
			url:            "/api/events/zero",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeEventsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewEventsHandler(fakeRepo, nil)
			r := setupRouter(http.MethodDelete, "/api/events/:id", h.DeleteEvent)

			w := doJSON(t, r, http.MethodDelete, tt.url, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
