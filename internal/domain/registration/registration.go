package registration

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusRegistered Status = "registered"
	StatusCheckedIn  Status = "checked_in"
	StatusCancelled  Status = "cancelled"
)

type Registration struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	StudentName  string     `json:"student_name"`
	StudentEmail string     `json:"student_email"`
	StudentPhone string     `json:"student_phone,omitempty"`
	Status       Status     `json:"status"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// if the same email tries to claim a second seat on the same event
var ErrAlreadyRegistered = errors.New("registration already exists")

// if the event is at max_participants
var ErrEventFull = errors.New("event is full")

var ErrNotFound = errors.New("registration not found")

var ErrInvalidTransition = errors.New("status transition not allowed")

type CreateRegistrationRequest struct {
	EventID      int64  `json:"event_id" binding:"required,min=1"`
	StudentName  string `json:"student_name" binding:"required,min=1,max=200"`
	StudentEmail string `json:"student_email" binding:"required,email"`
	StudentPhone string `json:"student_phone" binding:"omitempty,max=30"`
}

type CheckInRequest struct {
	EventID      int64  `json:"event_id" binding:"required,min=1"`
	StudentEmail string `json:"student_email" binding:"required,email"`
}

// NormalizeEmail is applied before storage and before every comparison,
// so "  Alice@X.COM " and "alice@x.com" always hit the same uniqueness slot.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize trims the free-text fields and canonicalizes the email.
func (req CreateRegistrationRequest) Normalize() CreateRegistrationRequest {
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.StudentEmail = NormalizeEmail(req.StudentEmail)
	req.StudentPhone = strings.TrimSpace(req.StudentPhone)

	return req
}

// the closed transition table: registered is the only state you can leave
var allowedTransitions = map[Status][]Status{
	StatusRegistered: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:  {},
	StatusCancelled:  {},
}

func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}

	return false
}
