package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentline/internal/config"
	"rentline/internal/domain"
	"rentline/internal/metrics"
	"rentline/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Job is the envelope pushed onto a Redis queue list. JournalID ties it back
// to the durable journal record.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Name       string          `json:"name"`
	Data       json.RawMessage `json:"data"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	JournalID  int64           `json:"journal_id"`
}

// Decode unmarshals the job payload into out.
func (j Job) Decode(out any) error {
	if len(j.Data) == 0 {
		return nil
	}
	return json.Unmarshal(j.Data, out)
}

// Options is the per-queue policy shared by all five queues.
type Options struct {
	Retry         RetryPolicy
	KeepCompleted int
	KeepFailed    int
	PollInterval  time.Duration
	BatchSize     int
}

// OptionsFromConfig maps the configured queue policy onto Options.
func OptionsFromConfig(cfg config.QueueConfig, worker config.WorkerConfig) Options {
	return Options{
		Retry: RetryPolicy{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  time.Duration(cfg.BackoffBaseMS) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.BackoffMaxMS) * time.Millisecond,
			BackoffFactor: 2,
		},
		KeepCompleted: cfg.KeepCompleted,
		KeepFailed:    cfg.KeepFailed,
		PollInterval:  time.Duration(worker.PollIntervalMS) * time.Millisecond,
		BatchSize:     20,
	}
}

func (o Options) withDefaults() Options {
	if o.Retry.MaxAttempts <= 0 {
		o.Retry.MaxAttempts = models.DefaultMaxAttempts
	}
	if o.Retry.InitialDelay <= 0 {
		o.Retry.InitialDelay = time.Duration(models.DefaultBackoffBaseMS) * time.Millisecond
	}
	if o.Retry.BackoffFactor <= 0 {
		o.Retry.BackoffFactor = 2
	}
	if o.KeepCompleted <= 0 {
		o.KeepCompleted = models.KeepCompletedJobs
	}
	if o.KeepFailed <= 0 {
		o.KeepFailed = models.KeepFailedJobs
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	return o
}

func listKey(queue string) string       { return "queue:" + queue }
func deadLetterKey(queue string) string { return "queue:" + queue + ":deadletter" }

// Producer journals a job and pushes it onto the queue's Redis list. The
// journal write comes first: if Redis is unreachable the consumer still
// finds the job by polling.
type Producer struct {
	redis   *redis.Client
	journal domain.JobJournal
	logger  *zerolog.Logger
}

func NewProducer(redisClient *redis.Client, journal domain.JobJournal, logger *zerolog.Logger) *Producer {
	return &Producer{redis: redisClient, journal: journal, logger: logger}
}

// Enqueue places a named job with a payload onto a named queue.
func (p *Producer) Enqueue(ctx context.Context, queueName, jobName string, payload any) error {
	if queueName == "" || jobName == "" {
		return errors.New("queue and job name are required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	rec := &models.JobRecord{
		JobID:   uuid.NewString(),
		Queue:   queueName,
		Name:    jobName,
		Payload: string(data),
		Status:  models.JobStatusPending,
	}
	if err := p.journal.CreateJob(ctx, rec); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}

	job := Job{
		ID:         rec.JobID,
		Queue:      queueName,
		Name:       jobName,
		Data:       data,
		EnqueuedAt: rec.CreatedAt,
		JournalID:  rec.ID,
	}

	if p.redis != nil {
		if err := p.pushRedis(ctx, job); err != nil {
			p.logger.Warn().Err(err).Str("queue", queueName).Str("job", jobName).
				Msg("redis push failed, job will be picked up by journal polling")
		}
	}

	return nil
}

func (p *Producer) pushRedis(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.redis.LPush(ctx, listKey(job.Queue), data).Err()
}

// Handler processes one job attempt.
type Handler func(ctx context.Context, job Job) error

// Consumer drains one named queue: Redis list first, then due journal
// records (fresh pending jobs Redis lost, and retries whose backoff
// elapsed). Same-queue ordering is best effort once retries are involved.
type Consumer struct {
	queue   string
	redis   *redis.Client
	journal domain.JobJournal
	opts    Options
	handler Handler
	logger  *zerolog.Logger
}

func NewConsumer(queueName string, redisClient *redis.Client, journal domain.JobJournal, opts Options, handler Handler, logger *zerolog.Logger) *Consumer {
	sub := logger.With().Str("queue", queueName).Logger()
	return &Consumer{
		queue:   queueName,
		redis:   redisClient,
		journal: journal,
		opts:    opts.withDefaults(),
		handler: handler,
		logger:  &sub,
	}
}

// Run consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info().Msg("consumer started")
	defer c.logger.Info().Msg("consumer stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if job, ok := c.tryRedis(ctx); ok {
			c.process(ctx, job)
			continue
		}

		jobs, err := c.journal.DueJobs(ctx, c.queue, c.opts.BatchSize)
		if err != nil {
			c.logger.Error().Err(err).Msg("fetch due jobs")
			sleepCtx(ctx, c.opts.PollInterval)
			continue
		}
		if len(jobs) == 0 {
			if c.redis == nil {
				sleepCtx(ctx, c.opts.PollInterval)
			}
			continue
		}

		for _, rec := range jobs {
			c.process(ctx, jobFromRecord(rec))
		}
	}
}

func (c *Consumer) tryRedis(ctx context.Context) (Job, bool) {
	if c.redis == nil {
		return Job{}, false
	}
	res, err := c.redis.BRPop(ctx, time.Second, listKey(c.queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Job{}, false
		}
		c.logger.Error().Err(err).Msg("redis BRPOP error")
		return Job{}, false
	}
	if len(res) != 2 {
		return Job{}, false
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		c.logger.Error().Err(err).Msg("decode redis job")
		return Job{}, false
	}
	return job, true
}

func (c *Consumer) process(ctx context.Context, job Job) {
	err := c.handler(ctx, job)
	if err != nil {
		c.retryOrFail(ctx, job, err)
		return
	}

	metrics.IncJobProcessed(c.queue, models.JobStatusCompleted)
	if err := c.journal.UpdateJobStatus(ctx, job.JournalID, models.JobStatusCompleted, "", nil); err != nil {
		c.logger.Error().Err(err).Int64("journal_id", job.JournalID).Msg("mark completed")
	}
	c.trim(ctx)
}

func (c *Consumer) retryOrFail(ctx context.Context, job Job, cause error) {
	attempt := job.Attempts + 1
	if attempt >= c.opts.Retry.MaxAttempts {
		metrics.IncJobProcessed(c.queue, models.JobStatusFailed)
		c.logger.Error().Err(cause).Str("job", job.Name).Int("attempts", attempt).
			Msg("job permanently failed")
		if err := c.journal.UpdateJobStatus(ctx, job.JournalID, models.JobStatusFailed, cause.Error(), nil); err != nil {
			c.logger.Error().Err(err).Int64("journal_id", job.JournalID).Msg("mark failed")
		}
		c.pushDeadLetter(ctx, job, cause)
		c.trim(ctx)
		return
	}

	metrics.IncJobRetry(c.queue)
	nextDelay := c.opts.Retry.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	c.logger.Warn().Err(cause).Str("job", job.Name).Int("attempt", attempt).
		Dur("next_delay", nextDelay).Msg("job failed, retry scheduled")
	if err := c.journal.UpdateJobStatus(ctx, job.JournalID, models.JobStatusRetry, cause.Error(), &nextTime); err != nil {
		c.logger.Error().Err(err).Int64("journal_id", job.JournalID).Msg("mark retry")
	}
}

func (c *Consumer) pushDeadLetter(ctx context.Context, job Job, cause error) {
	if c.redis == nil {
		return
	}
	envelope := struct {
		Job      Job    `json:"job"`
		Error    string `json:"error"`
		FailedAt string `json:"failed_at"`
	}{job, cause.Error(), time.Now().Format(time.RFC3339)}

	data, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Error().Err(err).Str("job_id", job.ID).Msg("encode deadletter")
		return
	}
	key := deadLetterKey(c.queue)
	if err := c.redis.LPush(ctx, key, data).Err(); err != nil {
		c.logger.Error().Err(err).Str("job_id", job.ID).Msg("deadletter push")
		return
	}
	// Bound the dead-letter list the same way the journal is bounded.
	c.redis.LTrim(ctx, key, 0, int64(c.opts.KeepFailed-1))
}

func (c *Consumer) trim(ctx context.Context) {
	if err := c.journal.TrimHistory(ctx, c.queue, c.opts.KeepCompleted, c.opts.KeepFailed); err != nil {
		c.logger.Error().Err(err).Msg("trim job history")
	}
}

func jobFromRecord(rec models.JobRecord) Job {
	return Job{
		ID:         rec.JobID,
		Queue:      rec.Queue,
		Name:       rec.Name,
		Data:       json.RawMessage(rec.Payload),
		Attempts:   rec.Attempts,
		EnqueuedAt: rec.CreatedAt,
		JournalID:  rec.ID,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
