package worker

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler exposes the worker's liveness and readiness plus the
// metrics endpoint, so the worker can run behind the same probes as
// the API.
func (w *Worker) HealthHandler(metrics http.Handler) http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"ok": true,
		})
	})

	// readiness: the drain loop is running and not shutting down
	r.GET("/readyz", func(c *gin.Context) {
		w.readyMu.RLock()
		ready := w.ready
		w.readyMu.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}
