package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

// Manager owns the process wide delivery queue and its periodic stats report
type Manager struct {
	queue       *Queue
	reportEvery time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// ConfigFromEnv reads NOTIFY_WORKERS, NOTIFY_MAX_ATTEMPTS and NOTIFY_RETRY_BASE_SECONDS
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Workers = env.GetEnvInt("NOTIFY_WORKERS", cfg.Workers)
	cfg.Retry.MaxAttempts = env.GetEnvInt("NOTIFY_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)
	if base := env.GetEnvInt("NOTIFY_RETRY_BASE_SECONDS", 0); base > 0 {
		cfg.Retry.BaseDelay = time.Duration(base) * time.Second
	}
	return cfg
}

// GetManager returns the global manager on the shared cache client (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(NewQueue(cache.GetClient(), ConfigFromEnv()), 5*time.Minute)
	})
	return globalManager
}

func NewManager(q *Queue, reportEvery time.Duration) *Manager {
	return &Manager{queue: q, reportEvery: reportEvery}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the queue and the stats reporter
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	log.Info("[JobQueue Manager] Starting delivery queue")
	m.queue.Start()

	if m.reportEvery > 0 {
		m.wg.Add(1)
		go m.reportStats(m.stopCh)
	}
}

// Stop stops the reporter, then the queue once in-flight deliveries finish
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	log.Info("[JobQueue Manager] Stopping delivery queue...")
	m.running = false
	close(m.stopCh)
	m.wg.Wait()
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped successfully")
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) reportStats(stop <-chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.reportEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.logStats(context.Background())
		}
	}
}

func (m *Manager) logStats(ctx context.Context) {
	s, err := m.queue.Stats(ctx)
	if err != nil {
		log.Warnf("[JobQueue Manager] Stats unavailable: %v", err)
		return
	}
	if s.Scheduled > 0 || s.Failed > 0 {
		log.Warnf("[JobQueue Manager] pending=%d processing=%d scheduled=%d delivered=%d failed=%d retried=%d",
			s.Pending, s.Processing, s.Scheduled, s.Completed, s.Failed, s.Retried)
		return
	}
	log.Infof("[JobQueue Manager] pending=%d processing=%d delivered=%d", s.Pending, s.Processing, s.Completed)
}
