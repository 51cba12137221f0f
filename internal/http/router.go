package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veereshswamy995/campus-events/internal/cache"
	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/db"
	"github.com/veereshswamy995/campus-events/internal/http/handlers"
	"github.com/veereshswamy995/campus-events/internal/http/middlewares"
	"github.com/veereshswamy995/campus-events/internal/observability"
	"github.com/veereshswamy995/campus-events/internal/queue"
	"github.com/veereshswamy995/campus-events/internal/queue/redisclient"
	"github.com/veereshswamy995/campus-events/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // JSON bodies here are tiny

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, redis *redisclient.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	promRegistry := prometheus.NewRegistry()
	prom := observability.NewProm(promRegistry)

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("campus-events-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(prom.GinHandleMiddleware())

	// wire up repositories
	eventsRepo := postgres.NewEventsRepo(pool, prom)
	registrationsRepo := postgres.NewRegistrationsRepo(pool, prom)
	analyticsRepo := postgres.NewAnalyticsRepo(pool, prom)

	// short TTL read cache shared by the list/report endpoints
	readCache := cache.New(5 * time.Second)

	var enqueuer handlers.ConfirmationEnqueuer
	pingRedis := func(ctx context.Context) error { return nil }

	if redis != nil {
		enqueuer = queue.NewProducer(redis.Raw())
		pingRedis = redis.Ping
	}

	pingDB := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}
		return pool.Ping(ctx)
	}

	schemaReady := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}
		return db.SchemaReady(ctx, pool)
	}

	// wire up handlers
	healthHandler := handlers.NewHealthHandler(pingDB, schemaReady, pingRedis)
	eventsHandler := handlers.NewEventsHandler(eventsRepo, readCache)
	registrationHandler := handlers.NewRegistrationHandler(registrationsRepo, enqueuer, log)
	checkinHandler := handlers.NewCheckInHandler(registrationsRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsRepo, readCache)

	// the endpoints students hit from their phones at the venue door
	studentLimiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	limited := studentLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.GET("/api/health", healthHandler.Health)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	r.GET("/api/events", eventsHandler.ListEvents)
	r.POST("/api/events", eventsHandler.CreateEvent)
	r.GET("/api/events/:id", eventsHandler.GetEventByID)
	r.PUT("/api/events/:id", eventsHandler.UpdateEvent)
	r.DELETE("/api/events/:id", eventsHandler.DeleteEvent)

	r.POST("/api/registrations", limited, registrationHandler.Register)
	r.GET("/api/registrations", registrationHandler.List)
	r.GET("/api/registrations/:event_id", registrationHandler.ListForEvent)
	r.DELETE("/api/registrations/:id", registrationHandler.Cancel)

	r.POST("/api/checkin", limited, checkinHandler.CheckIn)

	r.GET("/api/analytics", analyticsHandler.PerEvent)

	return r
}
