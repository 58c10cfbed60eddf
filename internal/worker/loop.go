// Package worker drives pending ingestion jobs through the PDF pipeline.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ocr-service/internal/entity"
)

// Store is the job-store surface the loop needs: claim plus the lifecycle
// transitions of the retry policy.
type Store interface {
	ClaimNextPending(ctx context.Context) (*entity.Job, error)
	Requeue(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error
	LogStage(ctx context.Context, jobID uuid.UUID, stage, message string) error
}

// JobProcessor runs one claimed job to completion.
type JobProcessor interface {
	Process(ctx context.Context, job *entity.Job) error
}

const (
	defaultPollInterval = 15 * time.Second
	defaultMaxAttempts  = 3
	defaultBaseBackoff  = 5 * time.Second
)

// Loop polls the job store, claims one job at a time and routes processing
// failures through the retry policy. A failing job or a store outage never
// stops the loop; only ctx cancellation does.
type Loop struct {
	store     Store
	processor JobProcessor

	pollInterval time.Duration
	maxAttempts  int
	baseBackoff  time.Duration

	// sleep is injectable so tests can run many iterations without
	// wall-clock delay.
	sleep func(ctx context.Context, d time.Duration)

	log zerolog.Logger
}

func NewLoop(store Store, processor JobProcessor, pollInterval time.Duration, log zerolog.Logger) *Loop {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Loop{
		store:        store,
		processor:    processor,
		pollInterval: pollInterval,
		maxAttempts:  defaultMaxAttempts,
		baseBackoff:  defaultBaseBackoff,
		sleep:        sleepCtx,
		log:          log,
	}
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info().Dur("poll_interval", l.pollInterval).Msg("worker loop started")

	for {
		if ctx.Err() != nil {
			l.log.Info().Msg("worker loop stopped")
			return
		}

		job, err := l.store.ClaimNextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("worker loop stopped")
				return
			}
			l.log.Error().Err(err).Msg("claim failed")
			l.sleep(ctx, l.pollInterval)
			continue
		}
		if job == nil {
			l.sleep(ctx, l.pollInterval)
			continue
		}

		l.log.Info().
			Str("job_id", job.ID.String()).
			Str("trace_id", job.TraceID).
			Int("retry_count", job.RetryCount).
			Msg("job claimed")

		if err := l.processor.Process(ctx, job); err != nil {
			l.handleFailure(ctx, job, err)
			continue
		}

		l.log.Info().Str("trace_id", job.TraceID).Msg("job completed")
	}
}

// handleFailure applies the retry policy: up to maxAttempts total attempts;
// a non-terminal failure requeues the job and backs off exponentially before
// the next claim (5s, 15s, ...). last_error is overwritten on every failure.
func (l *Loop) handleFailure(ctx context.Context, job *entity.Job, procErr error) {
	attempt := job.RetryCount + 1
	msg := procErr.Error()

	if err := l.store.LogStage(ctx, job.ID, "error", msg); err != nil {
		l.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("processing log write failed")
	}

	if attempt >= l.maxAttempts {
		if err := l.store.MarkFailed(ctx, job.ID, attempt, msg); err != nil {
			l.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("mark failed errored")
		}
		l.log.Error().
			Str("trace_id", job.TraceID).
			Int("attempts", attempt).
			Str("last_error", msg).
			Msg("job failed permanently")
		return
	}

	if err := l.store.Requeue(ctx, job.ID, attempt, msg); err != nil {
		l.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("requeue errored")
	}

	delay := backoff(l.baseBackoff, attempt)
	l.log.Warn().
		Str("trace_id", job.TraceID).
		Int("attempt", attempt).
		Int("max_attempts", l.maxAttempts).
		Dur("backoff", delay).
		Str("error", msg).
		Msg("job requeued")
	l.sleep(ctx, delay)
}

// backoff is base * 3^(attempt-1): 5s, 15s, 45s, ...
func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 3
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
