package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePaymentReconcile JobType = "payment_reconcile"
	JobTypeReceiptEmail     JobType = "receipt_email"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// PaymentReconcileJobPayload contains the payload for pending-payment sweeps
type PaymentReconcileJobPayload struct {
	OlderThanMinutes int `json:"older_than_minutes"` // Only touch payments pending for at least this long
	Limit            int `json:"limit"`              // Max payments per sweep
}

// ToMap converts the payload to a map for storage
func (p PaymentReconcileJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"older_than_minutes": p.OlderThanMinutes,
		"limit":              p.Limit,
	}
}

// FromMap creates a payload from a map
func PaymentReconcileJobPayloadFromMap(data map[string]interface{}) (*PaymentReconcileJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PaymentReconcileJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// ReceiptEmailJobPayload contains the payload for outbound receipt mails
type ReceiptEmailJobPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ToMap converts the payload to a map for storage
func (p ReceiptEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"to":      p.To,
		"subject": p.Subject,
		"body":    p.Body,
	}
}

// FromMap creates a payload from a map
func ReceiptEmailJobPayloadFromMap(data map[string]interface{}) (*ReceiptEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ReceiptEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
