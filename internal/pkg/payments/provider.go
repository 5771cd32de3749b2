package payments

import (
	"context"
	"errors"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
)

// ErrUpstream wraps failures of the external payment provider so handlers can
// tell them apart from our own faults.
var ErrUpstream = errors.New("payment provider error")

// InitiateRequest carries everything a provider needs to open a payment.
// The transaction row has already been persisted as pending.
type InitiateRequest struct {
	Payment *models.Payment
	Tier    *models.SubscriptionTier
	User    *models.User
}

// InitiateResult is the provider-neutral outcome of opening a payment.
type InitiateResult struct {
	// ProviderRef is the provider-side identifier to match the confirmation
	// against (CheckoutRequestID for M-Pesa, prepayId for Binance).
	ProviderRef string
	// CheckoutURL is set for redirect-style providers.
	CheckoutURL string
	// CustomerMessage is a human-readable prompt hint, when the provider
	// supplies one.
	CustomerMessage string
	// RawResponse is the provider response body, stored as metadata.
	RawResponse string
}

// Provider initiates payments with one external processor. Confirmation
// arrives separately through the provider's callback endpoint.
type Provider interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
}
