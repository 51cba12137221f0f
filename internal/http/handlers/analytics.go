package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veereshswamy995/campus-events/internal/cache"
	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/domain/analytics"
)

const analyticsCacheKey = "analytics:per_event:v1"

type AnalyticsReader interface {
	PerEvent(ctx context.Context) ([]analytics.PerEventStats, error)
}

type AnalyticsHandler struct {
	repo  AnalyticsReader
	cache *cache.Cache
}

func NewAnalyticsHandler(repo AnalyticsReader, c *cache.Cache) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, cache: c}
}

// PerEvent is a reporting view; a briefly stale answer is fine, so it
// sits behind the short TTL cache.
func (h *AnalyticsHandler) PerEvent(ctx *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(analyticsCacheKey); ok {
			ctx.JSON(http.StatusOK, cached)
			return
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	stats, err := h.repo.PerEvent(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not compute analytics")
		return
	}

	if h.cache != nil {
		h.cache.Set(analyticsCacheKey, stats)
	}

	ctx.JSON(http.StatusOK, stats)
}
