package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue           *Queue
	reconcileTicker *time.Ticker
	stopCh          chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	running         bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Periodic pending-payment reconciliation
	reconcileInterval := 2 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("PAYMENT_RECONCILE_INTERVAL_MINUTES", "")); err == nil && v > 0 {
		reconcileInterval = time.Duration(v) * time.Minute
	}
	m.reconcileTicker = time.NewTicker(reconcileInterval)
	m.wg.Add(1)
	go m.reconcileWorker(reconcileInterval)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.reconcileTicker != nil {
		m.reconcileTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// reconcileWorker periodically enqueues a sweep over pending payments whose
// provider callback never arrived.
func (m *Manager) reconcileWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started payment reconcile worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Payment reconcile worker stopping")
			return
		case <-m.reconcileTicker.C:
			payload := PaymentReconcileJobPayload{
				OlderThanMinutes: DefaultReconcileAfterMinutes,
				Limit:            DefaultReconcileBatch,
			}
			if _, err := m.queue.EnqueueJob(JobTypePaymentReconcile, payload.ToMap()); err != nil {
				log.Errorf("[JobQueue Manager] Error enqueuing reconcile sweep: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// EnqueueReceiptEmail queues an outbound mail for asynchronous delivery.
func EnqueueReceiptEmail(to, subject, body string) error {
	payload := ReceiptEmailJobPayload{To: to, Subject: subject, Body: body}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeReceiptEmail, payload.ToMap())
	return err
}
