package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	pingDB      func(ctx context.Context) error
	schemaReady func(ctx context.Context) error
	pingRedis   func(ctx context.Context) error
}

func NewHealthHandler(pingDB, schemaReady, pingRedis func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		pingDB:      pingDB,
		schemaReady: schemaReady,
		pingRedis:   pingRedis,
	}
}

// Health reports whether the store is reachable and schema-initialized.
// The body shape is what the front-ends already consume.
func (h *HealthHandler) Health(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	status := http.StatusOK
	message := "schema ready"

	if err := h.pingDB(cctx); err != nil {
		status = http.StatusInternalServerError
		message = "database unreachable"
	} else if err := h.schemaReady(cctx); err != nil {
		status = http.StatusInternalServerError
		message = "schema not initialized"
	}

	body := gin.H{
		"service": "campus-event-management",
		"status":  "ok",
		"message": message,
	}

	if status != http.StatusOK {
		body["status"] = "error"
	}

	ctx.JSON(status, body)
}

// Readyz goes one step deeper than Health: it also checks the queue.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	if err := h.pingDB(cctx); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "db not ready"})
		return
	}

	if h.pingRedis != nil {
		if err := h.pingRedis(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "queue not ready"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
