// Package jobs runs deferred work off the request path: anomaly reports,
// sync snapshot persistence, anything fire-and-forget. Jobs live in a
// Redis sorted set keyed by due time; failures retry with exponential
// backoff and land in a dead-letter list once the budget is spent.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hageshiame/light-heart/internal/logger"
	"github.com/hageshiame/light-heart/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	scheduledKey = "jobs:scheduled"
	failedKey    = "jobs:failed"

	defaultMaxRetries = 3
	pollInterval      = time.Second
)

// Job is the unit of deferred work. Payload is opaque to the scheduler;
// the registered handler for Type decodes it.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	Retries    int             `json:"retries"`
	MaxRetries int             `json:"maxRetries"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	LastError  string          `json:"lastError,omitempty"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

type Scheduler struct {
	rdb      *redis.Client
	handlers map[string]Handler

	// backoffBase scales retry delays: retry n waits base * 2^n.
	backoffBase time.Duration
}

func NewScheduler(rdb *redis.Client) *Scheduler {
	return &Scheduler{
		rdb:         rdb,
		handlers:    make(map[string]Handler),
		backoffBase: time.Second,
	}
}

// Register binds a handler to a job type. Call before Run; the handler
// map is not guarded.
func (s *Scheduler) Register(jobType string, h Handler) {
	s.handlers[jobType] = h
}

// Enqueue schedules a job to run as soon as a worker picks it up.
func (s *Scheduler) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	return s.EnqueueIn(ctx, jobType, payload, 0, 0)
}

// EnqueueIn schedules a job after a delay. Higher priority runs earlier
// among jobs due at the same time.
func (s *Scheduler) EnqueueIn(ctx context.Context, jobType string, payload any, delay time.Duration, priority int) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode job payload: %w", err)
	}
	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    raw,
		Priority:   priority,
		MaxRetries: defaultMaxRetries,
		EnqueuedAt: time.Now(),
	}
	if err := s.push(ctx, job, time.Now().Add(delay)); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (s *Scheduler) push(ctx context.Context, job Job, due time.Time) error {
	member, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	// Priority shaves milliseconds off the score so a higher-priority
	// job due at the same instant sorts first.
	score := float64(due.UnixMilli()) - float64(job.Priority)
	if err := s.rdb.ZAdd(ctx, scheduledKey, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	return nil
}

// Run polls for due jobs until the context is cancelled. Intended to be
// started once, as a goroutine, from the composition root.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainDue(ctx)
		}
	}
}

func (s *Scheduler) drainDue(ctx context.Context) {
	now := float64(time.Now().UnixMilli())
	for {
		members, err := s.rdb.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
			Min: "-inf", Max: fmt.Sprintf("%f", now), Count: 10,
		}).Result()
		if err != nil {
			logger.Warning("Job poll failed: %v", err)
			return
		}
		if len(members) == 0 {
			return
		}
		for _, member := range members {
			// ZRem is the claim: whoever removes the member owns the job.
			removed, err := s.rdb.ZRem(ctx, scheduledKey, member).Result()
			if err != nil || removed == 0 {
				continue
			}
			var job Job
			if err := json.Unmarshal([]byte(member), &job); err != nil {
				logger.Error("Dropping undecodable job: %v", err)
				continue
			}
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	handler, ok := s.handlers[job.Type]
	if !ok {
		logger.Error("No handler for job type %s, dead-lettering %s", job.Type, job.ID)
		s.deadLetter(ctx, job, "no handler registered")
		return
	}

	if err := handler(ctx, job.Payload); err != nil {
		job.Retries++
		job.LastError = err.Error()
		if job.Retries > job.MaxRetries {
			logger.Error("Job %s (%s) failed permanently: %v", job.ID, job.Type, err)
			s.deadLetter(ctx, job, err.Error())
			return
		}
		backoff := s.backoffBase << uint(job.Retries)
		logger.Warning("Job %s (%s) failed, retry %d/%d in %s: %v",
			job.ID, job.Type, job.Retries, job.MaxRetries, backoff, err)
		if err := s.push(ctx, job, time.Now().Add(backoff)); err != nil {
			logger.Error("Could not reschedule job %s: %v", job.ID, err)
		}
		metrics.JobsProcessed.WithLabelValues(job.Type, "retried").Inc()
		return
	}
	metrics.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
}

func (s *Scheduler) deadLetter(ctx context.Context, job Job, reason string) {
	job.LastError = reason
	member, err := json.Marshal(job)
	if err != nil {
		logger.Error("Could not encode dead-lettered job %s: %v", job.ID, err)
		return
	}
	if err := s.rdb.LPush(ctx, failedKey, member).Err(); err != nil {
		logger.Error("Could not dead-letter job %s: %v", job.ID, err)
	}
	metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
}

// Stats reports queue depths for the health endpoint.
type Stats struct {
	Scheduled int64 `json:"scheduled"`
	Failed    int64 `json:"failed"`
}

func (s *Scheduler) Stats(ctx context.Context) (*Stats, error) {
	scheduled, err := s.rdb.ZCard(ctx, scheduledKey).Result()
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	failed, err := s.rdb.LLen(ctx, failedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &Stats{Scheduled: scheduled, Failed: failed}, nil
}
