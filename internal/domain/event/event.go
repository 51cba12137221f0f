package event

import (
	"errors"
	"regexp"
	"time"
)

type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Location        string    `json:"location"`
	Type            string    `json:"type"`
	MaxParticipants int       `json:"max_participants"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("event not found")

var ErrInvalidTime = errors.New("invalid time format, use HH:MM or HH:MM:SS")

// the catalogue the front-ends render; anything else is stored as-is
const (
	TypeHackathon = "hackathon"
	TypeWorkshop  = "workshop"
	TypeTechTalk  = "tech_talk"
	TypeFest      = "fest"
)

type CreateEventRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string `json:"time" binding:"required"`
	Location        string `json:"location" binding:"required,min=1,max=200"`
	Type            string `json:"type" binding:"required,min=1,max=60"`
	MaxParticipants *int   `json:"max_participants" binding:"omitempty,min=1"`
	ImageURL        string `json:"image_url" binding:"omitempty,url"`
}

// partial update: nil means "leave the field alone"
type UpdateEventRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	Date            *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            *string `json:"time"`
	Location        *string `json:"location" binding:"omitempty,min=1,max=200"`
	Type            *string `json:"type" binding:"omitempty,min=1,max=60"`
	MaxParticipants *int    `json:"max_participants" binding:"omitempty,min=1"`
	ImageURL        *string `json:"image_url" binding:"omitempty,url"`
}

var (
	shortTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
	fullTime  = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// NormalizeTime accepts HH:MM or HH:MM:SS and always hands back HH:MM:SS,
// the canonical form crossing the API boundary.
func NormalizeTime(raw string) (string, error) {
	if shortTime.MatchString(raw) {
		raw += ":00"
	}

	if !fullTime.MatchString(raw) {
		return "", ErrInvalidTime
	}

	return raw, nil
}

const defaultMaxParticipants = 100

// Capacity resolves the requested ceiling, falling back to the schema
// default.
func (req CreateEventRequest) Capacity() int {
	if req.MaxParticipants != nil {
		return *req.MaxParticipants
	}

	return defaultMaxParticipants
}
