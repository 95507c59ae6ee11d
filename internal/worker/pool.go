package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Ranjel272/POSBF/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAudit   = "jobs:account_audit"
	JobTypeAudit = "account_audit"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAudit pushes an account event to the audit queue.
func (d *Dispatcher) EnqueueAudit(ctx context.Context, e *model.AccountEvent) error {
	return d.enqueue(ctx, QueueAudit, Job{Type: JobTypeAudit}, e)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return d.push(ctx, queue, job)
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one job payload. A returned error makes the pool retry
// the job until maxAttempts, then dead-letter it.
type JobHandler interface {
	Handle(ctx context.Context, payload json.RawMessage) error
}

const maxAttempts = 3

// StartWorkerPool launches numWorkers goroutines consuming the audit queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]JobHandler, numWorkers int) {
	d := NewDispatcher(rdb)
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, d, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, d *Dispatcher, handlers map[string]JobHandler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := d.rdb.BRPop(ctx, 5*time.Second, QueueAudit).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && !pause(ctx, id, err) {
					return
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, d, handlers, result[0], result[1])
		}
	}
}

// popBackoff is how long a worker waits after BRPOP fails for a reason other
// than an empty queue.
var popBackoff = 2 * time.Second

// pause logs a failed pop and waits popBackoff. It returns false when ctx is
// done.
func pause(ctx context.Context, id int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	log.Warn().Err(err).Int("worker", id).Msg("queue pop failed, backing off")
	t := time.NewTimer(popBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func processJob(ctx context.Context, d *Dispatcher, handlers map[string]JobHandler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for job type")
		SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload, "no handler", job.Attempts)
		return
	}

	err := h.Handle(ctx, job.Payload)
	if err == nil {
		return
	}
	job.Attempts++
	if job.Attempts >= maxAttempts || IsPermanent(err) {
		SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeueing")
	if perr := d.push(ctx, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
	}
}
