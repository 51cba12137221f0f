package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/domain/registration"
)

func newTestEvent(t *testing.T, s *Store, capacity int) event.Event {
	t.Helper()

	e, err := s.CreateEvent(context.Background(), event.CreateEventRequest{
		Title:           "Campus Hack Night",
		Date:            "2026-10-01",
		Time:            "18:00:00",
		Location:        "Main Hall",
		Type:            event.TypeHackathon,
		MaxParticipants: &capacity,
	})

	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	return e
}

func register(s *Store, eventID int64, email string) (registration.Registration, error) {
	return s.Register(context.Background(), registration.CreateRegistrationRequest{
		EventID:      eventID,
		StudentName:  "Student",
		StudentEmail: email,
	}.Normalize())
}

func TestRegisterCapacityAndDuplicateSequence(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 2)

	if _, err := register(s, e.ID, "a@x.com"); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := register(s, e.ID, "b@x.com"); err != nil {
		t.Fatalf("second registration: %v", err)
	}

	_, err := register(s, e.ID, "c@x.com")
	if !errors.Is(err, registration.ErrEventFull) {
		t.Fatalf("third registration: got %v, want ErrEventFull", err)
	}

	_, err = register(s, e.ID, "a@x.com")
	if !errors.Is(err, registration.ErrAlreadyRegistered) {
		t.Fatalf("re-registration: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegisterUnknownEvent(t *testing.T) {
	s := NewStore()

	_, err := register(s, 42, "a@x.com")
	if !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("got %v, want event.ErrNotFound", err)
	}
}

// capacity must hold under concurrent admissions: N seats, many more
// attempts, never more than N successes and never more than N rows.
func TestRegisterConcurrentCapacityInvariant(t *testing.T) {
	const capacity = 10
	const attempts = 100

	s := NewStore()
	e := newTestEvent(t, s, capacity)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := register(s, e.ID, fmt.Sprintf("s%d@x.com", n))
			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, registration.ErrEventFull) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != capacity {
		t.Fatalf("admitted %d, want exactly %d", succeeded, capacity)
	}

	regs, err := s.ListRegistrationsByEvent(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != capacity {
		t.Fatalf("%d rows stored, want %d", len(regs), capacity)
	}
}

// the same email racing itself must produce at most one row
func TestRegisterConcurrentDuplicateInvariant(t *testing.T) {
	const attempts = 50

	s := NewStore()
	e := newTestEvent(t, s, 100)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := register(s, e.ID, "same@x.com")
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, registration.ErrAlreadyRegistered) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Fatalf("%d registrations succeeded for one email, want 1", succeeded)
	}
}

func TestCheckInLifecycle(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 5)
	ctx := context.Background()

	// before any registration exists
	_, err := s.CheckIn(ctx, e.ID, "a@x.com")
	if !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("checkin without registration: got %v, want ErrNotFound", err)
	}

	if _, err := register(s, e.ID, "a@x.com"); err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := s.CheckIn(ctx, e.ID, "A@X.com") // case-insensitive match
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if first.Status != registration.StatusCheckedIn {
		t.Fatalf("status = %s, want checked_in", first.Status)
	}
	if first.CheckInTime == nil {
		t.Fatal("check_in_time not set")
	}

	// the second call finds no 'registered' row and must not touch the stamp
	_, err = s.CheckIn(ctx, e.ID, "a@x.com")
	if !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("second checkin: got %v, want ErrNotFound", err)
	}

	regs, _ := s.ListRegistrationsByEvent(ctx, e.ID)
	if len(regs) != 1 {
		t.Fatalf("rows = %d, want 1", len(regs))
	}
	if !regs[0].CheckInTime.Equal(*first.CheckInTime) {
		t.Fatal("check_in_time was overwritten by the second call")
	}
}

func TestCancelFreesSeatAndUniquenessSlot(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 1)
	ctx := context.Background()

	reg, err := register(s, e.ID, "a@x.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// full now
	if _, err := register(s, e.ID, "b@x.com"); !errors.Is(err, registration.ErrEventFull) {
		t.Fatalf("expected ErrEventFull, got %v", err)
	}

	if _, err := s.Cancel(ctx, reg.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// seat released: the same email may come back
	if _, err := register(s, e.ID, "a@x.com"); err != nil {
		t.Fatalf("re-register after cancel: %v", err)
	}

	// a cancelled row cannot be cancelled or checked in again
	if _, err := s.Cancel(ctx, reg.ID); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("second cancel: got %v, want ErrNotFound", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 10)
	other := newTestEvent(t, s, 10)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := register(s, e.ID, email); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if _, err := register(s, other.ID, "a@x.com"); err != nil {
		t.Fatalf("register other: %v", err)
	}

	if err := s.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, _ := s.ListRegistrations(ctx)

	for _, reg := range all {
		if reg.EventID == e.ID {
			t.Fatalf("orphaned registration %d survived cascade", reg.ID)
		}
	}

	// the sibling event keeps its rows
	if len(all) != 1 {
		t.Fatalf("rows = %d, want 1", len(all))
	}
}

func TestPerEventStats(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 10)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := register(s, e.ID, email); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if _, err := s.CheckIn(ctx, e.ID, "a@x.com"); err != nil {
		t.Fatalf("checkin: %v", err)
	}

	stats, err := s.PerEvent(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats rows = %d, want 1", len(stats))
	}

	got := stats[0]
	if got.Registered != 3 || got.CheckedIn != 1 {
		t.Fatalf("registered=%d checked_in=%d, want 3/1", got.Registered, got.CheckedIn)
	}
	if got.AttendanceRate != 33.3 {
		t.Fatalf("attendance_rate = %v, want 33.3", got.AttendanceRate)
	}
}

func TestPerEventStatsExcludesCancelled(t *testing.T) {
	s := NewStore()
	e := newTestEvent(t, s, 10)
	ctx := context.Background()

	reg, _ := register(s, e.ID, "a@x.com")
	if _, err := register(s, e.ID, "b@x.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Cancel(ctx, reg.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stats, _ := s.PerEvent(ctx)

	if stats[0].Registered != 1 {
		t.Fatalf("registered = %d, want 1 (cancelled excluded)", stats[0].Registered)
	}
}
