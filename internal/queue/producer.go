package queue

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Producer struct {
	rdb *redis.Client
}

func NewProducer(rdb *redis.Client) *Producer {
	return &Producer{rdb: rdb}
}

// Enqueue pushes a confirmation message. Callers invoke this after the
// registration transaction commits; a failure here must not fail the
// registration, so the caller only logs it.
func (p *Producer) Enqueue(ctx context.Context, payload ConfirmationPayload) error {
	if payload.MessageID == "" {
		payload.MessageID = uuid.NewString()
	}

	raw, err := EncodeConfirmation(payload)

	if err != nil {
		return err
	}

	return p.rdb.LPush(ctx, ConfirmationQueue, raw).Err()
}
