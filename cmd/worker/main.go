package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/notifications"
	"github.com/veereshswamy995/campus-events/internal/observability"
	"github.com/veereshswamy995/campus-events/internal/queue/redisclient"
	"github.com/veereshswamy995/campus-events/internal/queue/worker"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	redis := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer func() { _ = redis.Close() }()

	if err := redis.Ping(ctx); err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	prom := observability.NewProm(promRegistry)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
		},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:    workerID,
		MaxAttempts: 5,
		PopTimeout:  time.Second,
	}, redis.Raw(), notifier, prom, log)

	// probe and metrics sidecar server
	probeSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WorkerPort),
		Handler:           w.HealthHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := probeSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("probe server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = probeSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
