package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veereshswamy995/campus-events/internal/notifications"
	"github.com/veereshswamy995/campus-events/internal/observability"
	"github.com/veereshswamy995/campus-events/internal/queue"
)

type Config struct {
	WorkerID    string
	MaxAttempts int
	// how long BRPOP blocks before re-checking for shutdown
	PopTimeout time.Duration
}

// Worker drains the confirmation queue and hands each message to the
// notifier. A failed send is re-enqueued after a backoff until the
// attempt budget runs out.
type Worker struct {
	cfg      Config
	rdb      *redis.Client
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, rdb *redis.Client, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}

	return &Worker{
		cfg:      cfg,
		rdb:      rdb,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

func (w *Worker) setReady(ready bool) {
	w.readyMu.Lock()
	w.ready = ready
	w.readyMu.Unlock()
}

func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "worker_id", w.cfg.WorkerID)

	w.setReady(true)
	defer w.setReady(false)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil
		default:
		}

		res, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, queue.ConfirmationQueue).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Error("queue pop failed", "err", err)
			continue
		}

		// BRPOP returns [key, value]
		if len(res) != 2 {
			continue
		}

		w.process(ctx, []byte(res[1]))

		w.gaugeDepth(ctx)
	}
}

func (w *Worker) process(ctx context.Context, raw []byte) {
	payload, err := queue.DecodeConfirmation(raw)

	if err != nil {
		// a message we cannot decode will never succeed; drop it loudly
		w.log.Error("dropping undecodable message", "err", err)
		w.count("failed", 0)
		return
	}

	start := time.Now()

	err = w.notifier.SendRegistrationConfirmation(ctx, notifications.SendRegistrationConfirmationInput{
		Email:          payload.StudentEmail,
		Name:           payload.StudentName,
		EventID:        payload.EventID,
		RegistrationID: payload.RegistrationID,
	})

	if err == nil {
		w.count("done", time.Since(start).Seconds())
		w.log.Info("confirmation sent",
			"message_id", payload.MessageID,
			"registration_id", payload.RegistrationID,
			"attempts", payload.Attempts,
		)
		return
	}

	payload.Attempts++

	if payload.Attempts >= w.cfg.MaxAttempts {
		w.count("failed", time.Since(start).Seconds())
		w.log.Error("confirmation abandoned",
			"message_id", payload.MessageID,
			"registration_id", payload.RegistrationID,
			"attempts", payload.Attempts,
			"err", err,
		)
		return
	}

	w.count("retry", time.Since(start).Seconds())
	w.log.Warn("confirmation failed, will retry",
		"message_id", payload.MessageID,
		"attempts", payload.Attempts,
		"err", err,
	)

	w.requeueAfter(payload, ExponentialBackoff(payload.Attempts))
}

// requeueAfter puts the message back once the backoff elapses. The
// re-enqueue uses a fresh context: the message must survive even if the
// triggering request's context is gone.
func (w *Worker) requeueAfter(payload queue.ConfirmationPayload, delay time.Duration) {
	time.AfterFunc(delay, func() {
		raw, err := queue.EncodeConfirmation(payload)

		if err != nil {
			w.log.Error("re-encode failed", "message_id", payload.MessageID, "err", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := w.rdb.LPush(ctx, queue.ConfirmationQueue, raw).Err(); err != nil {
			w.log.Error("requeue failed", "message_id", payload.MessageID, "err", err)
		}
	})
}

func (w *Worker) count(result string, secs float64) {
	if w.prom == nil {
		return
	}

	w.prom.NotifyResults.WithLabelValues(result).Inc()

	if secs > 0 {
		w.prom.NotifyDuration.WithLabelValues(result).Observe(secs)
	}
}

func (w *Worker) gaugeDepth(ctx context.Context) {
	if w.prom == nil {
		return
	}

	depth, err := w.rdb.LLen(ctx, queue.ConfirmationQueue).Result()

	if err == nil {
		w.prom.QueueDepth.Set(float64(depth))
	}
}
