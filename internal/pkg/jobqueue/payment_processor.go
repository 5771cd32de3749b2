package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/mail"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/middleware"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/payments"
)

const (
	// Payments that never saw a callback get queried after this long.
	DefaultReconcileAfterMinutes = 5
	// Max payments touched per sweep.
	DefaultReconcileBatch = 50
)

var (
	paymentSvc     *payments.Service
	paymentSvcOnce sync.Once
)

// reconcileService returns the shared payment service used by the workers.
// Receipts for sweep-settled payments re-enter the queue as mail jobs.
func reconcileService() *payments.Service {
	paymentSvcOnce.Do(func() {
		paymentSvc = payments.NewServiceFromDB(database.GetDB())
		paymentSvc.Mailer = EnqueueReceiptEmail
		paymentSvc.OnSettled = middleware.InvalidateEntitlementCache
	})
	return paymentSvc
}

// processPaymentReconcileJob sweeps pending M-Pesa payments whose callback
// never arrived and asks Daraja how they ended.
func (q *Queue) processPaymentReconcileJob(ctx context.Context, job *Job) error {
	payload, err := PaymentReconcileJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payment reconcile payload: %w", err)
	}

	olderThan := time.Duration(payload.OlderThanMinutes) * time.Minute
	if olderThan <= 0 {
		olderThan = DefaultReconcileAfterMinutes * time.Minute
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = DefaultReconcileBatch
	}

	settled, err := reconcileService().ReconcilePending(ctx, olderThan, limit)
	if err != nil {
		return fmt.Errorf("payment reconcile sweep: %w", err)
	}
	if settled > 0 {
		log.Infof("[JobQueue] Reconcile sweep settled %d payment(s)", settled)
	}
	return nil
}

// processReceiptEmailJob delivers a queued mail.
func (q *Queue) processReceiptEmailJob(job *Job) error {
	payload, err := ReceiptEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid receipt email payload: %w", err)
	}
	if payload.To == "" {
		return fmt.Errorf("receipt email payload has no recipient")
	}
	return mail.SendMail(payload.To, payload.Subject, payload.Body)
}
