package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ConfirmationQueue is the Redis list the API pushes to and the worker
// drains. Messages are self-contained JSON; attempts travel with the
// message so any worker can pick up a retry.
const ConfirmationQueue = "campus:notify:registration_confirmation"

var (
	ErrInvalidPayload = errors.New("invalid confirmation payload")
)

type ConfirmationPayload struct {
	MessageID      string    `json:"messageId"`
	RegistrationID int64     `json:"registrationId"`
	EventID        int64     `json:"eventId"`
	StudentEmail   string    `json:"studentEmail"`
	StudentName    string    `json:"studentName"`
	Attempts       int       `json:"attempts"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}

func (p ConfirmationPayload) Validate() error {
	if p.RegistrationID < 1 || p.EventID < 1 || p.StudentEmail == "" {
		return ErrInvalidPayload
	}

	return nil
}

func EncodeConfirmation(p ConfirmationPayload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(p)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return b, nil
}

func DecodeConfirmation(raw []byte) (ConfirmationPayload, error) {
	if len(raw) == 0 {
		return ConfirmationPayload{}, ErrInvalidPayload
	}

	var p ConfirmationPayload

	if err := json.Unmarshal(raw, &p); err != nil {
		return ConfirmationPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := p.Validate(); err != nil {
		return ConfirmationPayload{}, err
	}

	return p, nil
}
