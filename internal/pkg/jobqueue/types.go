package jobqueue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendCertificate JobType = "send_certificate"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusScheduled  JobStatus = "scheduled" // waiting for its next attempt
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one unit of background work stored as JSON under its own key
type Job struct {
	ID            string          `json:"id"`
	Type          JobType         `json:"type"`
	Status        JobStatus       `json:"status"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"max_attempts"`
	LastError     string          `json:"last_error,omitempty"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	NextAttemptAt *time.Time      `json:"next_attempt_at,omitempty"`
}

// NewJob encodes payload as the job body
func NewJob(jobType JobType, payload interface{}, maxAttempts int, now time.Time) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", jobType, err)
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Job{
		ID:          uuid.New().String(),
		Type:        jobType,
		Status:      JobStatusPending,
		Payload:     raw,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  now,
	}, nil
}

// Decode unmarshals the payload into v
func (j *Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return Permanent(fmt.Errorf("decode %s payload: %w", j.Type, err))
	}
	return nil
}

func (j *Job) begin(now time.Time) {
	j.Status = JobStatusProcessing
	j.Attempts++
	j.StartedAt = &now
	j.NextAttemptAt = nil
}

// LastAttempt reports whether a failure now would be final
func (j *Job) LastAttempt() bool {
	return j.Attempts >= j.MaxAttempts
}

// SendCertificatePayload carries one rendered certificate to its recipient
type SendCertificatePayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Folio string `json:"folio"`
	Image string `json:"image"` // base64 PNG
}

// NewSendCertificatePayload encodes the image for storage in redis
func NewSendCertificatePayload(email, name, folio string, png []byte) SendCertificatePayload {
	return SendCertificatePayload{
		Email: email,
		Name:  name,
		Folio: folio,
		Image: base64.StdEncoding.EncodeToString(png),
	}
}

// ImageBytes decodes the stored PNG
func (p SendCertificatePayload) ImageBytes() ([]byte, error) {
	img, err := base64.StdEncoding.DecodeString(p.Image)
	if err != nil {
		return nil, Permanent(fmt.Errorf("certificate %s image: %w", p.Folio, err))
	}
	return img, nil
}
