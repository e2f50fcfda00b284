package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskShareLinkPurge removes expired share links and stale idempotency keys.
	TaskShareLinkPurge = "sharelink:purge"
	// ShareLinkPurgeCron runs the purge daily at 03:00 UTC.
	ShareLinkPurgeCron = "0 3 * * *"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// ShareLinkPurgePayload carries scheduling metadata.
type ShareLinkPurgePayload struct {
	ScheduledFor time.Time `json:"scheduled_for,omitempty"`
}

// NewShareLinkPurgeTask constructs the purge task.
func NewShareLinkPurgeTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ShareLinkPurgePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShareLinkPurge, body, asynq.Queue(QueueDefault)), nil
}
