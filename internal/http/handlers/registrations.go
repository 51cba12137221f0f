package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
	"github.com/veereshswamy995/campus-events/internal/domain/registration"
	"github.com/veereshswamy995/campus-events/internal/queue"
)

type RegistrationRepository interface {
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error)
	List(ctx context.Context) ([]registration.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]registration.Registration, error)
	Cancel(ctx context.Context, id int64) (registration.Registration, error)
}

type ConfirmationEnqueuer interface {
	Enqueue(ctx context.Context, payload queue.ConfirmationPayload) error
}

type RegistrationHandler struct {
	repo     RegistrationRepository
	enqueuer ConfirmationEnqueuer
	log      *slog.Logger
}

func NewRegistrationHandler(repo RegistrationRepository, enqueuer ConfirmationEnqueuer, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{repo: repo, enqueuer: enqueuer, log: log}
}

// Register admits one student onto one event. The repo runs the whole
// admission (duplicate check, capacity check, insert) as a single
// transaction, so concurrent requests cannot overshoot capacity.
func (h *RegistrationHandler) Register(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req = req.Normalize()

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	reg, err := h.repo.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, registration.ErrAlreadyRegistered):
			RespondConflict(ctx, "already_registered", "This email is already registered for this event.")
		case errors.Is(err, registration.ErrEventFull):
			RespondConflict(ctx, "event_full", "This event is already at full capacity.")
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		default:
			RespondInternal(ctx, "Could not register for event")
			h.log.ErrorContext(ctx.Request.Context(), "registration failed", "err", err)
		}
		return
	}

	// confirmation goes out of band; a queue hiccup must not undo an
	// admission that already committed
	if h.enqueuer != nil {
		err = h.enqueuer.Enqueue(cctx, queue.ConfirmationPayload{
			RegistrationID: reg.ID,
			EventID:        reg.EventID,
			StudentEmail:   reg.StudentEmail,
			StudentName:    reg.StudentName,
			EnqueuedAt:     time.Now().UTC(),
		})

		if err != nil {
			h.log.ErrorContext(ctx.Request.Context(), "confirmation enqueue failed",
				"registration_id", reg.ID, "err", err)
		}
	}

	ctx.JSON(http.StatusCreated, reg)
}

// List serves both the admin view (all rows) and the per-event filter,
// either as ?event_id= or as a path parameter.
func (h *RegistrationHandler) List(ctx *gin.Context) {
	raw := ctx.Query("event_id")

	if raw == "" {
		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		regs, err := h.repo.List(cctx)

		if err != nil {
			RespondInternal(ctx, "Could not list registrations")
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"count":         len(regs),
			"registrations": regs,
		})
		return
	}

	eventID, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || eventID < 1 {
		RespondBadRequest(ctx, "event_id must be a positive integer", gin.H{"field": "event_id"})
		return
	}

	h.listForEvent(ctx, eventID)
}

func (h *RegistrationHandler) ListForEvent(ctx *gin.Context) {
	eventID, ok := parsePathID(ctx, "event_id")
	if !ok {
		return
	}

	h.listForEvent(ctx, eventID)
}

func (h *RegistrationHandler) listForEvent(ctx *gin.Context, eventID int64) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	regs, err := h.repo.ListByEvent(cctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"eventId":       eventID,
		"count":         len(regs),
		"registrations": regs,
	})
}

// Cancel frees the seat and the email's uniqueness slot. Only a row
// still in 'registered' can be cancelled.
func (h *RegistrationHandler) Cancel(ctx *gin.Context) {
	id, ok := parsePathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	reg, err := h.repo.Cancel(cctx, id)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			RespondNotFound(ctx, "Registration not found")
			return
		}

		RespondInternal(ctx, "Could not cancel registration")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}
