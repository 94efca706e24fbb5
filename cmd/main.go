package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shreyas/cadence/api/routes"
	"github.com/shreyas/cadence/lib/env"
	"github.com/shreyas/cadence/lib/httpserver"
	"github.com/shreyas/cadence/lib/logger"
	redisClient "github.com/shreyas/cadence/lib/redis"
	"github.com/shreyas/cadence/scheduler"
	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/httpjob"
	"github.com/shreyas/cadence/scheduler/notifier"
	"github.com/shreyas/cadence/scheduler/schedule"
)

func init() {
	if err := logger.Initialize(); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
}

func main() {
	defer func() { _ = logger.Sync() }()

	var redisNotifier *notifier.RedisNotifier
	sink := notifier.Notifier(notifier.New(loggingHandlers()))

	if env.UseRedisNotifier() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Initialize(ctx)
		cancel()
		if err != nil {
			logger.Fatal("failed to initialize Redis client", "error", err)
		}
		logger.Info("successfully connected to Redis")

		redisNotifier = notifier.NewRedisNotifier(redisClient.Client)
		sink = notifier.NewMulti(sink, redisNotifier)
		defer func() { _ = redisClient.Close() }()
	}

	s := scheduler.New(scheduler.WithNotifier(sink))

	heartbeat, err := httpjob.AtMostOnce(httpjob.Request{
		ID:       "heartbeat",
		Name:     "heartbeat-ping",
		URL:      "https://example.com/health",
		Schedule: schedule.New(schedule.WithCron("0 * * * * *")),
	})
	if err != nil {
		logger.Fatal("failed to build heartbeat job", "error", err)
	}
	s.Add(heartbeat)

	s.Start(env.PollInterval())
	logger.Info("scheduler started", "poll_interval", env.PollInterval())

	server := httpserver.New(routes.Setup(s, redisNotifier))

	go func() {
		logger.Info("starting cadence server", "addr", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, gracefully shutting down")

	s.Stop()
	logger.Info("scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// loggingHandlers gives every scheduler a baseline sink that logs
// lifecycle transitions and job completions, independent of whether
// Redis mirroring is enabled.
func loggingHandlers() notifier.Handlers {
	return notifier.Handlers{
		SchedulerStarted: func() { logger.Info("notifier: scheduler started") },
		SchedulerStopped: func() { logger.Info("notifier: scheduler stopped") },
		JobFinished: func(exec *execution.JobExecution) {
			def := exec.Definition()
			if exec.Success() {
				logger.Info("job finished", "job_id", def.ID(), "name", def.Name(), "duration", exec.Duration())
				return
			}
			logger.Warn("job failed", "job_id", def.ID(), "name", def.Name(), "error", exec.Error())
		},
	}
}
