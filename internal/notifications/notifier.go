package notifications

import "context"

type SendRegistrationConfirmationInput struct {
	Email          string
	Name           string
	EventID        int64
	RegistrationID int64
}

type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, input SendRegistrationConfirmationInput) error
}
