package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
)

// fakeRepo is an in-memory payments.Repository.
type fakeRepo struct {
	payments map[string]*models.Payment // by transaction id
	events   map[string]*models.PaymentWebhookEvent
	tiers    map[uint]*models.SubscriptionTier
	users    map[uint]*models.User
	nextID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments: map[string]*models.Payment{},
		events:   map[string]*models.PaymentWebhookEvent{},
		tiers: map[uint]*models.SubscriptionTier{
			1: {ID: 1, Type: "premium", Price: 1500, Currency: "KES", DurationDays: 30, IsActive: true},
			2: {ID: 2, Type: "retired", Price: 900, Currency: "KES", DurationDays: 30, IsActive: false},
		},
		users: map[uint]*models.User{
			7: {ID: 7, Name: "June", Email: "june@example.com", Status: models.STATUS_ACTIVE},
		},
	}
}

func (r *fakeRepo) CreatePayment(p *models.Payment) error {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	r.payments[p.TransactionID] = p
	return nil
}

func (r *fakeRepo) GetByTransactionID(id string) (*models.Payment, error) {
	if p, ok := r.payments[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetByCheckoutRequestID(checkoutRequestID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.CheckoutRequestID == checkoutRequestID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetByBinanceOrder(merchantTradeNo, prepayID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.TransactionID == restoreTradeNo(merchantTradeNo) || (prepayID != "" && p.BinanceOrderID == prepayID) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) SaveProviderRef(p *models.Payment) error { return nil }

func (r *fakeRepo) MarkCompleted(p *models.Payment, receipt string, at time.Time) error {
	p.Status = models.PaymentStatusCompleted
	p.ProviderReceipt = receipt
	p.CompletedAt = &at
	if stored, ok := r.payments[p.TransactionID]; ok && stored != p {
		*stored = *p
	}
	return nil
}

func (r *fakeRepo) MarkFailed(p *models.Payment, reason string) error {
	p.Status = models.PaymentStatusFailed
	p.FailureReason = reason
	if stored, ok := r.payments[p.TransactionID]; ok && stored != p {
		*stored = *p
	}
	return nil
}

func (r *fakeRepo) ListPendingOlderThan(provider string, cutoff time.Time, limit int) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.Provider == provider && p.IsPending() && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetTier(id uint) (*models.SubscriptionTier, error) {
	if t, ok := r.tiers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetUser(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	event.ID = uint(len(r.events) + 1)
	r.events[key] = event
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error { return nil }

// fakeEntRepo is an in-memory entitlements.Repository recording grants.
type fakeEntRepo struct {
	grantErr error // returned once, then cleared
	grants   []struct {
		userID, tierID uint
		duration       time.Duration
	}
}

func (r *fakeEntRepo) Grant(userID, tierID uint, duration time.Duration, now time.Time) (*models.UserSubscription, error) {
	if r.grantErr != nil {
		err := r.grantErr
		r.grantErr = nil
		return nil, err
	}
	r.grants = append(r.grants, struct {
		userID, tierID uint
		duration       time.Duration
	}{userID, tierID, duration})
	return &models.UserSubscription{UserID: userID, TierID: tierID, StartDate: now, EndDate: now.Add(duration), IsActive: true}, nil
}

func (r *fakeEntRepo) GetByUserAndTier(userID, tierID uint) (*models.UserSubscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntRepo) ListByUser(userID uint) ([]models.UserSubscription, error) { return nil, nil }

func (r *fakeEntRepo) Deactivate(userID, tierID uint) error { return nil }

// fakeProvider scripts the provider outcome.
type fakeProvider struct {
	name   string
	result *InitiateResult
	err    error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newTestService(repo *fakeRepo, providers ...Provider) (*Service, *fakeEntRepo) {
	entRepo := &fakeEntRepo{}
	svc := NewService(repo, entitlements.NewService(entRepo), providers...)
	return svc, entRepo
}

func TestInitiate_MpesaSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderMpesa,
		result: &InitiateResult{ProviderRef: "ws_CO_1", CustomerMessage: "Check your phone"},
	})

	payment, result, err := svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "0712345678")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "254712345678", payment.PhoneNumber)
	assert.Equal(t, "ws_CO_1", payment.CheckoutRequestID)
	assert.Equal(t, 1500.0, payment.Amount)
	assert.Equal(t, "Check your phone", result.CustomerMessage)
	assert.NotEmpty(t, payment.TransactionID)
}

func TestInitiate_ProviderFailureMarksFailed(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name: models.PaymentProviderMpesa,
		err:  errors.New("upstream exploded"),
	})

	payment, _, err := svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "0712345678")
	require.Error(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Contains(t, payment.FailureReason, "upstream exploded")
	assert.Empty(t, entRepo.grants)
}

func TestInitiate_Rejections(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeProvider{name: models.PaymentProviderMpesa, result: &InitiateResult{}})

	_, _, err := svc.Initiate(context.Background(), "paypal", 7, 1, "")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, _, err = svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 2, "0712345678")
	assert.ErrorIs(t, err, ErrTierUnavailable)

	_, _, err = svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 99, "0712345678")
	assert.ErrorIs(t, err, ErrTierUnavailable)

	_, _, err = svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	// nothing left pending after the rejected attempts
	for _, p := range repo.payments {
		assert.NotEqual(t, models.PaymentStatusPending, p.Status)
	}
}

func TestSettleMpesa_GrantsOnce(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderMpesa,
		result: &InitiateResult{ProviderRef: "ws_CO_77"},
	})

	payment, _, err := svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "0712345678")
	require.NoError(t, err)

	cb := &MpesaCallback{CheckoutRequestID: "ws_CO_77", ResultCode: MpesaResultSuccess, ReceiptNumber: "NLJ7RT61SV"}
	settled, err := svc.SettleMpesa(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.Equal(t, "NLJ7RT61SV", settled.ProviderReceipt)
	require.Len(t, entRepo.grants, 1)
	assert.Equal(t, uint(7), entRepo.grants[0].userID)
	assert.Equal(t, uint(1), entRepo.grants[0].tierID)
	assert.Equal(t, 30*24*time.Hour, entRepo.grants[0].duration)

	// replayed callback: no second grant, same outcome
	again, err := svc.SettleMpesa(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, again.Status)
	assert.Len(t, entRepo.grants, 1)

	_ = payment
}

func TestSettleMpesa_GrantFailureLeavesPending(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderMpesa,
		result: &InitiateResult{ProviderRef: "ws_CO_99"},
	})

	payment, _, err := svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "0712345678")
	require.NoError(t, err)

	cb := &MpesaCallback{CheckoutRequestID: "ws_CO_99", ResultCode: MpesaResultSuccess, ReceiptNumber: "NLJ7RT61SV"}

	// The ledger write fails: the transaction must not read completed, or
	// the replay below would no-op and the payer would never get access.
	entRepo.grantErr = errors.New("deadlock found when trying to get lock")
	_, err = svc.SettleMpesa(context.Background(), cb)
	require.Error(t, err)
	assert.Equal(t, models.PaymentStatusPending, repo.payments[payment.TransactionID].Status)
	assert.Empty(t, entRepo.grants)

	// replayed callback settles for real
	settled, err := svc.SettleMpesa(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	require.Len(t, entRepo.grants, 1)
	assert.Equal(t, uint(7), entRepo.grants[0].userID)
}

func TestSettleMpesa_CancelledMarksFailed(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderMpesa,
		result: &InitiateResult{ProviderRef: "ws_CO_88"},
	})

	_, _, err := svc.Initiate(context.Background(), models.PaymentProviderMpesa, 7, 1, "0712345678")
	require.NoError(t, err)

	cb := &MpesaCallback{CheckoutRequestID: "ws_CO_88", ResultCode: MpesaResultCancelled, ResultDesc: "Request cancelled by user."}
	settled, err := svc.SettleMpesa(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, settled.Status)
	assert.Contains(t, settled.FailureReason, "1032")
	assert.Empty(t, entRepo.grants)
}

func TestSettleBinance_Grants(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderBinance,
		result: &InitiateResult{ProviderRef: "prepay-1", CheckoutURL: "https://pay.example/checkout"},
	})

	payment, result, err := svc.Initiate(context.Background(), models.PaymentProviderBinance, 7, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "prepay-1", payment.BinanceOrderID)
	assert.Equal(t, "https://pay.example/checkout", result.CheckoutURL)

	wh := &BinanceWebhook{BizStatus: "PAY_SUCCESS", PrepayID: "prepay-1", BizID: "b-100"}
	settled, err := svc.SettleBinance(context.Background(), wh)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.Equal(t, "b-100", settled.ProviderReceipt)
	assert.Len(t, entRepo.grants, 1)
}

func TestRecordWebhookEvent_Dedup(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	payload := []byte(`{"x":1}`)
	created, first, err := svc.RecordWebhookEvent(context.Background(), models.PaymentProviderMpesa, "evt-1", "stk_callback", payload, true)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	created, second, err := svc.RecordWebhookEvent(context.Background(), models.PaymentProviderMpesa, "evt-1", "stk_callback", payload, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEvent_DerivedID(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	payload := []byte(`{"same":"payload"}`)
	created, _, err := svc.RecordWebhookEvent(context.Background(), models.PaymentProviderBinance, "", "order_notification", payload, true)
	require.NoError(t, err)
	assert.True(t, created)

	// identical payload with no event id collapses onto the same derived id
	created, _, err = svc.RecordWebhookEvent(context.Background(), models.PaymentProviderBinance, "", "order_notification", payload, true)
	require.NoError(t, err)
	assert.False(t, created)
}

type scriptedQuerier struct {
	results map[string]*QueryResult
}

func (q *scriptedQuerier) QueryStatus(ctx context.Context, ref string) (*QueryResult, error) {
	if r, ok := q.results[ref]; ok {
		return r, nil
	}
	return nil, errors.New("unknown checkout request")
}

func TestReconcilePending(t *testing.T) {
	repo := newFakeRepo()
	svc, entRepo := newTestService(repo, &fakeProvider{
		name:   models.PaymentProviderMpesa,
		result: &InitiateResult{ProviderRef: "seed"},
	})

	old := time.Now().Add(-time.Hour)
	repo.payments["t-done"] = &models.Payment{ID: 11, TransactionID: "t-done", UserID: 7, TierID: 1,
		Provider: models.PaymentProviderMpesa, Status: models.PaymentStatusPending,
		CheckoutRequestID: "ws_ok", CreatedAt: old}
	repo.payments["t-cancel"] = &models.Payment{ID: 12, TransactionID: "t-cancel", UserID: 7, TierID: 1,
		Provider: models.PaymentProviderMpesa, Status: models.PaymentStatusPending,
		CheckoutRequestID: "ws_cancel", CreatedAt: old}
	repo.payments["t-wait"] = &models.Payment{ID: 13, TransactionID: "t-wait", UserID: 7, TierID: 1,
		Provider: models.PaymentProviderMpesa, Status: models.PaymentStatusPending,
		CheckoutRequestID: "ws_wait", CreatedAt: old}
	repo.payments["t-naked"] = &models.Payment{ID: 14, TransactionID: "t-naked", UserID: 7, TierID: 1,
		Provider: models.PaymentProviderMpesa, Status: models.PaymentStatusPending,
		CreatedAt: old}

	svc.SetStatusQuerier(&scriptedQuerier{results: map[string]*QueryResult{
		"ws_ok":     {Settled: true, Success: true, ResultCode: 0},
		"ws_cancel": {Settled: true, Success: false, ResultCode: 1032, ResultDesc: "Request cancelled by user."},
		"ws_wait":   {Settled: false},
	}})

	settled, err := svc.ReconcilePending(context.Background(), 10*time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, settled) // ws_ok, ws_cancel, and the ref-less row

	assert.Equal(t, models.PaymentStatusCompleted, repo.payments["t-done"].Status)
	assert.Equal(t, models.PaymentStatusFailed, repo.payments["t-cancel"].Status)
	assert.Equal(t, models.PaymentStatusPending, repo.payments["t-wait"].Status)
	assert.Equal(t, models.PaymentStatusFailed, repo.payments["t-naked"].Status)
	assert.Len(t, entRepo.grants, 1)
}
