package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/veereshswamy995/campus-events/internal/domain/analytics"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/domain/registration"
)

// Store keeps both tables behind one mutex. Holding the lock across the
// duplicate check, the capacity check and the insert gives the same
// admission serialization the postgres repo gets from its row lock.
type Store struct {
	mu sync.Mutex

	nextEventID int64
	nextRegID   int64

	events        map[int64]event.Event
	registrations map[int64]registration.Registration
}

func NewStore() *Store {
	return &Store{
		nextEventID:   1,
		nextRegID:     1,
		events:        make(map[int64]event.Event),
		registrations: make(map[int64]registration.Registration),
	}
}

func (s *Store) CreateEvent(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e := event.Event{
		ID:              s.nextEventID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Date:            req.Date,
		Time:            req.Time,
		Location:        strings.TrimSpace(req.Location),
		Type:            req.Type,
		MaxParticipants: req.Capacity(),
		ImageURL:        strings.TrimSpace(req.ImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.nextEventID++
	s.events[e.ID] = e

	return e, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}

	// newest first, matching the postgres repo's ordering
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (s *Store) GetEventByID(ctx context.Context, id int64) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.Time != nil {
		e.Time = *req.Time
	}
	if req.Location != nil {
		e.Location = strings.TrimSpace(*req.Location)
	}
	if req.Type != nil {
		e.Type = *req.Type
	}
	if req.MaxParticipants != nil {
		e.MaxParticipants = *req.MaxParticipants
	}
	if req.ImageURL != nil {
		e.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	e.UpdatedAt = time.Now()
	s.events[id] = e

	return e, nil
}

// DeleteEvent cascades: registrations go with their owning event.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return event.ErrNotFound
	}

	delete(s.events, id)

	for regID, reg := range s.registrations {
		if reg.EventID == id {
			delete(s.registrations, regID)
		}
	}

	return nil
}

// Register runs the full admission under the store lock: duplicate check,
// capacity check, insert. The request must already be normalized.
func (s *Store) Register(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[req.EventID]
	if !ok {
		return registration.Registration{}, event.ErrNotFound
	}

	active := 0
	for _, reg := range s.registrations {
		if reg.EventID != req.EventID || reg.Status == registration.StatusCancelled {
			continue
		}

		if reg.StudentEmail == req.StudentEmail {
			return registration.Registration{}, registration.ErrAlreadyRegistered
		}
		active++
	}

	if active >= e.MaxParticipants {
		return registration.Registration{}, registration.ErrEventFull
	}

	now := time.Now()
	reg := registration.Registration{
		ID:           s.nextRegID,
		EventID:      req.EventID,
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		StudentPhone: req.StudentPhone,
		Status:       registration.StatusRegistered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextRegID++
	s.registrations[reg.ID] = reg

	return reg, nil
}

func (s *Store) CheckIn(ctx context.Context, eventID int64, studentEmail string) (registration.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := registration.NormalizeEmail(studentEmail)

	for id, reg := range s.registrations {
		if reg.EventID != eventID || reg.StudentEmail != email {
			continue
		}

		if !reg.Status.CanTransitionTo(registration.StatusCheckedIn) {
			// already checked in or cancelled: nothing to check in
			return registration.Registration{}, registration.ErrNotFound
		}

		now := time.Now()
		reg.Status = registration.StatusCheckedIn
		reg.CheckInTime = &now
		reg.UpdatedAt = now
		s.registrations[id] = reg

		return reg, nil
	}

	return registration.Registration{}, registration.ErrNotFound
}

func (s *Store) Cancel(ctx context.Context, id int64) (registration.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok || !reg.Status.CanTransitionTo(registration.StatusCancelled) {
		return registration.Registration{}, registration.ErrNotFound
	}

	reg.Status = registration.StatusCancelled
	reg.UpdatedAt = time.Now()
	s.registrations[id] = reg

	return reg, nil
}

func (s *Store) ListRegistrations(ctx context.Context) ([]registration.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]registration.Registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		out = append(out, reg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (s *Store) ListRegistrationsByEvent(ctx context.Context, eventID int64) ([]registration.Registration, error) {
	s.mu.Lock()

	if _, ok := s.events[eventID]; !ok {
		s.mu.Unlock()
		return nil, event.ErrNotFound
	}

	out := make([]registration.Registration, 0)
	for _, reg := range s.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (s *Store) PerEvent(ctx context.Context) ([]analytics.PerEventStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]analytics.PerEventStats, 0, len(s.events))

	for _, e := range s.events {
		registered, checkedIn := 0, 0

		for _, reg := range s.registrations {
			if reg.EventID != e.ID {
				continue
			}
			if reg.Status != registration.StatusCancelled {
				registered++
			}
			if reg.Status == registration.StatusCheckedIn {
				checkedIn++
			}
		}

		stats = append(stats, analytics.PerEventStats{
			EventID:         e.ID,
			EventTitle:      e.Title,
			MaxParticipants: e.MaxParticipants,
			Registered:      registered,
			CheckedIn:       checkedIn,
			AttendanceRate:  analytics.Rate(checkedIn, registered),
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].EventID < stats[j].EventID })

	return stats, nil
}
