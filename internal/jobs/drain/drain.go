package drain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Drainer retries one batch of queued reactions.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Job ticks the reaction retry queue on a fixed interval so queued
// reactions go out even when the chat is quiet.
type Job struct {
	drainer  Drainer
	interval time.Duration
	logger   *zap.Logger
}

func NewJob(drainer Drainer, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		drainer:  drainer,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (j *Job) Run(ctx context.Context) error {
	if j.drainer == nil {
		return fmt.Errorf("drainer is not configured")
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("reaction drain job started", zap.Duration("interval", j.interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("reaction drain job stopped")
			return nil
		case <-ticker.C:
			if err := j.drainer.Drain(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("scheduled queue drain failed", zap.Error(err))
			}
		}
	}
}
