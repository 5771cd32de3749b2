package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptEmailPayloadRoundTrip(t *testing.T) {
	in := ReceiptEmailJobPayload{
		To:      "june@example.com",
		Subject: "Payment received for premium",
		Body:    "<p>We received 1500.00 KES.</p>",
	}

	out, err := ReceiptEmailJobPayloadFromMap(in.ToMap())
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestPaymentReconcilePayloadFromStoredMap(t *testing.T) {
	// numbers come back from the redis JSON blob as float64
	out, err := PaymentReconcileJobPayloadFromMap(map[string]interface{}{
		"older_than_minutes": float64(5),
		"limit":              float64(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, out.OlderThanMinutes)
	assert.Equal(t, 50, out.Limit)
}

func TestJobRetryBudget(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: DefaultMaxRetries}

	job.MarkAsFailed("smtp dial timeout")
	assert.True(t, job.IsRetryable())
	assert.Equal(t, 1, job.RetryCount)

	job.MarkAsFailed("smtp dial timeout")
	job.MarkAsFailed("smtp dial timeout")
	assert.False(t, job.IsRetryable(), "budget exhausted")

	job.MarkAsCompleted()
	assert.Empty(t, job.ErrorMsg)
}
