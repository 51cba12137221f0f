package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veereshswamy995/campus-events/internal/cache"
	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/domain/event"
)

const eventsListCacheKey = "events:list:v1"

type EventsRepository interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	List(ctx context.Context) ([]event.Event, error)
	GetByID(ctx context.Context, id int64) (event.Event, error)
	Update(ctx context.Context, id int64, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id int64) error
}

type EventsHandler struct {
	repo  EventsRepository
	cache *cache.Cache
}

func NewEventsHandler(repo EventsRepository, c *cache.Cache) *EventsHandler {
	return &EventsHandler{repo: repo, cache: c}
}

func (h *EventsHandler) invalidate() {
	if h.cache != nil {
		h.cache.Delete(eventsListCacheKey)
		h.cache.Delete(analyticsCacheKey)
	}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	normalized, err := event.NormalizeTime(req.Time)

	if err != nil {
		RespondBadRequest(ctx, err.Error(), gin.H{"field": "time"})
		return
	}

	req.Time = normalized

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create event")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusCreated, created)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(eventsListCacheKey); ok {
			ctx.JSON(http.StatusOK, cached)
			return
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	events, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list events")
		return
	}

	payload := gin.H{
		"items": events,
		"count": len(events),
	}

	if h.cache != nil {
		h.cache.Set(eventsListCacheKey, payload)
	}

	ctx.JSON(http.StatusOK, payload)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id, ok := parsePathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id, ok := parsePathID(ctx, "id")
	if !ok {
		return
	}

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Time != nil {
		normalized, err := event.NormalizeTime(*req.Time)

		if err != nil {
			RespondBadRequest(ctx, err.Error(), gin.H{"field": "time"})
			return
		}

		req.Time = &normalized
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not update event")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, updated)
}

// DeleteEvent cascades; the store drops every registration owned by the
// event, so no orphaned rows survive.
func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id, ok := parsePathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not delete event")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
