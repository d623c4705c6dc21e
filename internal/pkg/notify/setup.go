package notify

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/archive"
	"github.com/ManuelReschke/CertiFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
	"github.com/ManuelReschke/CertiFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CertiFox/internal/pkg/mail"
)

// NewDelivererFromEnv wires the configured mailer and the optional S3 archive
func NewDelivererFromEnv(ctx context.Context) *Deliverer {
	var archiver Archiver
	cfg, err := archive.LoadConfig()
	if err != nil {
		log.Warnf("[Notify] Archive disabled: %v", err)
	} else if cfg.IsEnabled() {
		client, err := archive.NewClient(ctx, cfg)
		if err != nil {
			log.Warnf("[Notify] Archive disabled: %v", err)
		} else {
			archiver = client
		}
	}
	return NewDeliverer(mail.NewFromEnv(), archiver)
}

// NewFromEnv picks the dispatcher named by NOTIFY_BACKEND (local or redis).
// redis falls back to local when the cache is unreachable.
func NewFromEnv(d *Deliverer) Dispatcher {
	workers := env.GetEnvInt("NOTIFY_WORKERS", 3)
	if strings.ToLower(env.GetEnv("NOTIFY_BACKEND", "local")) == "redis" {
		if cache.Available() {
			log.Info("[Notify] Using redis job queue")
			return NewManagedDispatcher(jobqueue.GetManager(), d)
		}
		log.Warn("[Notify] Cache unreachable, falling back to local workers")
	}
	return NewPool(d, workers, env.GetEnvInt("NOTIFY_QUEUE_SIZE", 100))
}
