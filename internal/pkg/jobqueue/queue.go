package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// JobTTL bounds how long a job record (including a failed one kept for inspection) lives in redis
const JobTTL = 24 * time.Hour

// Handler runs one job. Returning an error schedules another attempt unless
// the error is Permanent or the job has no attempts left.
type Handler func(ctx context.Context, job *Job) error

// Config tunes a Queue. Zero fields take the defaults of DefaultConfig.
type Config struct {
	Namespace           string
	Workers             int
	Retry               RetryPolicy
	JobTimeout          time.Duration // per attempt
	StaleAfter          time.Duration // processing longer than this is treated as a crashed worker
	MaintenanceInterval time.Duration
	PollTimeout         time.Duration
}

func DefaultConfig() Config {
	return Config{
		Namespace:           "certifox:notify",
		Workers:             3,
		Retry:               DefaultRetryPolicy,
		JobTimeout:          time.Minute,
		StaleAfter:          10 * time.Minute,
		MaintenanceInterval: 5 * time.Second,
		PollTimeout:         time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Namespace == "" {
		c.Namespace = def.Namespace
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = def.Retry.BaseDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = def.Retry.MaxDelay
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = def.JobTimeout
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = def.StaleAfter
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = def.MaintenanceInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = def.PollTimeout
	}
	return c
}

// keys under one namespace:
//
//	<ns>:pending     list of job ids, LPUSH in, BRPOPLPUSH out
//	<ns>:processing  list of ids currently owned by a worker
//	<ns>:scheduled   zset of ids scored by the unix time of their next attempt
//	<ns>:stats       hash of lifetime counters
//	<ns>:job:<id>    job JSON
type keys struct {
	pending, processing, scheduled, stats, jobPrefix string
}

func newKeys(ns string) keys {
	return keys{
		pending:    ns + ":pending",
		processing: ns + ":processing",
		scheduled:  ns + ":scheduled",
		stats:      ns + ":stats",
		jobPrefix:  ns + ":job:",
	}
}

func (k keys) job(id string) string { return k.jobPrefix + id }

// Stats counter fields
const (
	statEnqueued  = "enqueued"
	statCompleted = "completed"
	statFailed    = "failed"
	statRetried   = "retried"
	statRecovered = "recovered"
)

// Stats is a snapshot of the queue. The first three are current sizes, the rest lifetime counters.
type Stats struct {
	Pending    int64 `json:"pendientes"`
	Processing int64 `json:"en_proceso"`
	Scheduled  int64 `json:"reintentos_programados"`
	Enqueued   int64 `json:"encolados"`
	Completed  int64 `json:"entregados"`
	Failed     int64 `json:"fallidos"`
	Retried    int64 `json:"reintentos"`
	Recovered  int64 `json:"recuperados"`
}

// Queue runs jobs from redis with a fixed set of workers
type Queue struct {
	client *redis.Client
	cfg    Config
	keys   keys
	now    func() time.Time

	handlersMu sync.RWMutex
	handlers   map[JobType]Handler

	// lifecycle guards running and stopCh. Workers never take it, so Stop
	// may hold it while waiting for them.
	lifecycle sync.Mutex
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewQueue creates a queue on client
func NewQueue(client *redis.Client, cfg Config) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		client:   client,
		cfg:      cfg,
		keys:     newKeys(cfg.Namespace),
		now:      time.Now,
		handlers: make(map[JobType]Handler),
	}
}

// Handle registers the handler for a job type
func (q *Queue) Handle(jobType JobType, h Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[jobType] = h
}

func (q *Queue) handler(jobType JobType) (Handler, bool) {
	q.handlersMu.RLock()
	defer q.handlersMu.RUnlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

// Start launches the workers and the maintenance loop. Calling it twice is a no-op.
func (q *Queue) Start() {
	q.lifecycle.Lock()
	defer q.lifecycle.Unlock()

	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	log.Infof("[JobQueue] Starting %d workers on %s", q.cfg.Workers, q.cfg.Namespace)

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i, q.stopCh)
	}
	q.wg.Add(1)
	go q.maintenance(q.stopCh)
}

// Stop signals the workers and waits for in-flight attempts to finish.
// Jobs still pending stay in redis for the next Start.
func (q *Queue) Stop() {
	q.lifecycle.Lock()
	defer q.lifecycle.Unlock()

	if !q.running {
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

// Enqueue stores payload as a new pending job
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (*Job, error) {
	job, err := NewJob(jobType, payload, q.cfg.Retry.MaxAttempts, q.now())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, q.keys.job(job.ID), data, JobTTL)
	pipe.LPush(ctx, q.keys.pending, job.ID)
	pipe.HIncrBy(ctx, q.keys.stats, statEnqueued, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue %s job: %w", jobType, err)
	}

	log.Debugf("[JobQueue] Enqueued %s job %s", job.Type, job.ID)
	return job, nil
}

// Stats reads current sizes and lifetime counters in one round trip
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.keys.pending)
	processing := pipe.LLen(ctx, q.keys.processing)
	scheduled := pipe.ZCard(ctx, q.keys.scheduled)
	counters := pipe.HGetAll(ctx, q.keys.stats)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, fmt.Errorf("read queue stats: %w", err)
	}

	c := counters.Val()
	return Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Scheduled:  scheduled.Val(),
		Enqueued:   parseCounter(c[statEnqueued]),
		Completed:  parseCounter(c[statCompleted]),
		Failed:     parseCounter(c[statFailed]),
		Retried:    parseCounter(c[statRetried]),
		Recovered:  parseCounter(c[statRecovered]),
	}, nil
}

func parseCounter(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func (q *Queue) worker(id int, stop <-chan struct{}) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-stop:
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		jobID, err := q.client.BRPopLPush(ctx, q.keys.pending, q.keys.processing, q.cfg.PollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			log.Errorf("[JobQueue] Worker %d: dequeue failed: %v", id, err)
			select {
			case <-stop:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		job, err := q.load(ctx, jobID)
		if err != nil {
			log.Errorf("[JobQueue] Worker %d: dropping %s: %v", id, jobID, err)
			q.client.LRem(ctx, q.keys.processing, 1, jobID)
			continue
		}
		q.run(ctx, job)
	}
}

func (q *Queue) load(ctx context.Context, id string) (*Job, error) {
	data, err := q.client.Get(ctx, q.keys.job(id)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) save(ctx context.Context, pipe redis.Pipeliner, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Encode job %s: %v", job.ID, err)
		return
	}
	pipe.Set(ctx, q.keys.job(job.ID), data, JobTTL)
}

// run executes one attempt and records the outcome
func (q *Queue) run(ctx context.Context, job *Job) {
	job.begin(q.now())
	pipe := q.client.Pipeline()
	q.save(ctx, pipe, job)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("[JobQueue] Could not mark %s as processing: %v", job.ID, err)
	}

	err := q.attempt(ctx, job)

	pipe = q.client.TxPipeline()
	pipe.LRem(ctx, q.keys.processing, 1, job.ID)
	switch {
	case err == nil:
		pipe.Del(ctx, q.keys.job(job.ID))
		pipe.HIncrBy(ctx, q.keys.stats, statCompleted, 1)
		log.Infof("[JobQueue] %s job %s done on attempt %d", job.Type, job.ID, job.Attempts)

	case IsPermanent(err) || job.LastAttempt():
		job.Status = JobStatusFailed
		job.LastError = err.Error()
		q.save(ctx, pipe, job)
		pipe.HIncrBy(ctx, q.keys.stats, statFailed, 1)
		log.Errorf("[JobQueue] %s job %s gave up after %d/%d attempts: %v", job.Type, job.ID, job.Attempts, job.MaxAttempts, err)

	default:
		wait := q.cfg.Retry.Backoff(job.Attempts)
		next := q.now().Add(wait)
		job.Status = JobStatusScheduled
		job.LastError = err.Error()
		job.NextAttemptAt = &next
		q.save(ctx, pipe, job)
		pipe.ZAdd(ctx, q.keys.scheduled, redis.Z{Score: float64(next.Unix()), Member: job.ID})
		pipe.HIncrBy(ctx, q.keys.stats, statRetried, 1)
		log.Warnf("[JobQueue] %s job %s attempt %d/%d failed, retrying in %s: %v", job.Type, job.ID, job.Attempts, job.MaxAttempts, wait, err)
	}
	if _, perr := pipe.Exec(ctx); perr != nil {
		log.Errorf("[JobQueue] Could not record outcome of %s: %v", job.ID, perr)
	}
}

func (q *Queue) attempt(ctx context.Context, job *Job) (err error) {
	h, ok := q.handler(job.Type)
	if !ok {
		return Permanent(fmt.Errorf("unknown job type: %s", job.Type))
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.JobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, job)
}

// maintenance moves due retries back to pending and recovers jobs left in
// processing by a worker that died mid attempt
func (q *Queue) maintenance(stop <-chan struct{}) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.cfg.MaintenanceInterval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n, err := q.promoteDue(ctx); err != nil {
				log.Errorf("[JobQueue] Promote scheduled jobs: %v", err)
			} else if n > 0 {
				log.Debugf("[JobQueue] %d scheduled jobs due", n)
			}
			if n, err := q.recoverStale(ctx); err != nil {
				log.Errorf("[JobQueue] Recover stale jobs: %v", err)
			} else if n > 0 {
				log.Warnf("[JobQueue] Recovered %d stale jobs", n)
			}
		}
	}
}

func (q *Queue) promoteDue(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.keys.scheduled, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, id := range due {
		// ZRem decides the winner when several instances share the queue
		removed, err := q.client.ZRem(ctx, q.keys.scheduled, id).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.keys.pending, id).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (q *Queue) recoverStale(ctx context.Context) (int, error) {
	ids, err := q.client.LRange(ctx, q.keys.processing, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	recovered := 0
	now := q.now()
	for _, id := range ids {
		job, err := q.load(ctx, id)
		if err != nil {
			// expired or corrupt record
			q.client.LRem(ctx, q.keys.processing, 1, id)
			continue
		}
		if job.StartedAt == nil || now.Sub(*job.StartedAt) <= q.cfg.StaleAfter {
			continue
		}

		job.Status = JobStatusPending
		job.LastError = "recovered after stalled attempt"
		pipe := q.client.TxPipeline()
		q.save(ctx, pipe, job)
		pipe.LRem(ctx, q.keys.processing, 1, id)
		pipe.RPush(ctx, q.keys.pending, id)
		pipe.HIncrBy(ctx, q.keys.stats, statRecovered, 1)
		if _, err := pipe.Exec(ctx); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}
