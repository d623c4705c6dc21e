package notify

import (
	"context"

	"github.com/ManuelReschke/CertiFox/internal/pkg/jobqueue"
)

// QueueDispatcher persists notifications in the redis job queue, which retries failures with backoff
type QueueDispatcher struct {
	queue *jobqueue.Queue
	stop  func()
}

// NewQueueDispatcher registers the delivery handler and starts the queue
func NewQueueDispatcher(q *jobqueue.Queue, d *Deliverer) *QueueDispatcher {
	registerDelivery(q, d)
	q.Start()
	return &QueueDispatcher{queue: q, stop: q.Stop}
}

// NewManagedDispatcher runs delivery on the global job queue manager
func NewManagedDispatcher(m *jobqueue.Manager, d *Deliverer) *QueueDispatcher {
	registerDelivery(m.GetQueue(), d)
	m.Start()
	return &QueueDispatcher{queue: m.GetQueue(), stop: m.Stop}
}

func registerDelivery(q *jobqueue.Queue, d *Deliverer) {
	q.Handle(jobqueue.JobTypeSendCertificate, func(ctx context.Context, job *jobqueue.Job) error {
		var payload jobqueue.SendCertificatePayload
		if err := job.Decode(&payload); err != nil {
			return err
		}
		img, err := payload.ImageBytes()
		if err != nil {
			return err
		}
		return d.Deliver(ctx, Notification{
			Email: payload.Email,
			Name:  payload.Name,
			Folio: payload.Folio,
			Image: img,
		})
	})
}

func (qd *QueueDispatcher) Submit(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := jobqueue.NewSendCertificatePayload(n.Email, n.Name, n.Folio, n.Image)
	_, err := qd.queue.Enqueue(ctx, jobqueue.JobTypeSendCertificate, payload)
	return err
}

func (qd *QueueDispatcher) Stats(ctx context.Context) (Stats, error) {
	s, err := qd.queue.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Backend:   "redis",
		Pending:   s.Pending,
		InFlight:  s.Processing,
		Scheduled: s.Scheduled,
		Delivered: s.Completed,
		Failed:    s.Failed,
		Retried:   s.Retried,
	}, nil
}

func (qd *QueueDispatcher) Close() {
	qd.stop()
}
