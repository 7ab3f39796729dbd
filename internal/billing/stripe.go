// Package billing covers everything that changes a user's plan: Stripe
// subscriptions and gift codes
package billing

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

var (
	ErrBillingDisabled  = errors.New("billing is not configured")
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	// Prices maps plan ids to Stripe price ids
	Prices map[string]string
	// StorageLimit is the quota of a profile first seen through a webhook
	StorageLimit int64
	// Backend overrides the Stripe API backend, nil means api.stripe.com
	Backend stripe.Backend
}

type Stripe struct {
	cfg      Config
	sessions session.Client
}

func NewStripe(cfg Config) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, ErrBillingDisabled
	}

	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret can't be empty")
	}

	if cfg.StorageLimit <= 0 {
		cfg.StorageLimit = model.DefaultStorageLimit
	}

	b := cfg.Backend
	if b == nil {
		b = stripe.GetBackend(stripe.APIBackend)
	}

	return &Stripe{
		cfg:      cfg,
		sessions: session.Client{B: b, Key: cfg.SecretKey},
	}, nil
}

type Checkout struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// Checkout opens a subscription checkout for planID. The uid travels in the
// session and subscription metadata so the webhook knows whom to upgrade.
func (s *Stripe) Checkout(ctx context.Context, u *model.User, planID string) (*Checkout, error) {
	price, ok := s.cfg.Prices[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}

	meta := map[string]string{"uid": u.UID, "planId": planID}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(u.UID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: meta,
		},
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	if u.Email != "" {
		params.CustomerEmail = stripe.String(u.Email)
	}

	cs, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &Checkout{ID: cs.ID, URL: cs.URL}, nil
}

// HandleWebhook verifies a Stripe event and applies the plan change it
// carries to d. Events that don't concern plans are ignored.
func (s *Stripe) HandleWebhook(ctx context.Context, d *store.DataAccess, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Data == nil {
		return fmt.Errorf("%w: event has no data", store.ErrInvalidInput)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}

		uid := cs.ClientReferenceID
		if uid == "" {
			uid = cs.Metadata["uid"]
		}

		return s.setPlan(ctx, d, uid, cs.Metadata["planId"], string(event.Type))

	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}

		plan := model.PlanFree
		if event.Type == stripe.EventTypeCustomerSubscriptionUpdated && active(sub.Status) {
			plan = sub.Metadata["planId"]
		}

		return s.setPlan(ctx, d, sub.Metadata["uid"], plan, string(event.Type))
	}

	zap.L().Debug("Ignoring stripe event", zap.String("type", string(event.Type)))
	return nil
}

func (s *Stripe) setPlan(ctx context.Context, d *store.DataAccess, uid, plan, event string) error {
	if uid == "" || plan == "" {
		zap.L().Warn("Stripe event without uid or plan", zap.String("event", event))
		return nil
	}

	patch := model.UserPatch{Plan: &plan}

	if _, err := d.GetUser(ctx, uid); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		// paid before the first sign in synced a profile
		zap.L().Info("Creating profile from stripe event", zap.String("uid", uid), zap.String("event", event))
		patch.StorageUsed = model.Ptr(int64(0))
		patch.StorageLimit = model.Ptr(s.cfg.StorageLimit)
	}

	if err := d.CreateUser(ctx, uid, patch); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	zap.L().Info("Plan changed", zap.String("uid", uid), zap.String("plan", plan), zap.String("event", event))
	return nil
}

func active(s stripe.SubscriptionStatus) bool {
	return s == stripe.SubscriptionStatusActive || s == stripe.SubscriptionStatusTrialing
}
