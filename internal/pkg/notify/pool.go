package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Pool delivers notifications with a fixed number of in-process workers
type Pool struct {
	deliverer *Deliverer
	queue     chan Notification
	timeout   time.Duration
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool

	inFlight  atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// NewPool starts workers reading from a queue of size capacity
func NewPool(d *Deliverer, workers, capacity int) *Pool {
	if workers <= 0 {
		workers = 3
	}
	if capacity <= 0 {
		capacity = 100
	}

	p := &Pool{
		deliverer: d,
		queue:     make(chan Notification, capacity),
		timeout:   30 * time.Second,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Infof("[Notify] Started %d local workers", workers)
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for n := range p.queue {
		p.inFlight.Add(1)
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.deliverer.Deliver(ctx, n); err != nil {
			p.failed.Add(1)
			log.Errorf("[Notify] Worker %d: delivery of %s to %s failed: %v", id, n.Folio, n.Email, err)
		} else {
			p.delivered.Add(1)
			log.Infof("[Notify] Worker %d: delivered %s to %s", id, n.Folio, n.Email)
		}
		cancel()
		p.inFlight.Add(-1)
	}
}

// Submit enqueues without blocking
func (p *Pool) Submit(ctx context.Context, n Notification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats reports the buffered backlog and the counters since start
func (p *Pool) Stats(context.Context) (Stats, error) {
	return Stats{
		Backend:   "local",
		Pending:   int64(len(p.queue)),
		InFlight:  p.inFlight.Load(),
		Delivered: p.delivered.Load(),
		Failed:    p.failed.Load(),
	}, nil
}

// Close stops accepting work and waits for queued notifications
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	log.Info("[Notify] Local workers stopped")
}
