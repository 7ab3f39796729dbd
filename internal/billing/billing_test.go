package billing

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"bitwise74/invoice-api/pkg/security"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const whsec = "whsec_test"

func newAccess(t *testing.T) *store.DataAccess {
	t.Helper()

	f, err := store.NewFactory(nil, local.NewBackend(local.NewMemory()))
	require.NoError(t, err)
	return f.For(store.ModeDemo)
}

func seed(t *testing.T, d *store.DataAccess, uid string) {
	t.Helper()
	require.NoError(t, d.CreateUser(context.Background(), uid, model.UserPatch{
		Plan:         model.Ptr(model.PlanFree),
		StorageLimit: model.Ptr(model.DefaultStorageLimit),
	}))
}

func newStripe(t *testing.T, url string) *Stripe {
	t.Helper()

	cfg := Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: whsec,
		SuccessURL:    "https://app.test/billing/success",
		CancelURL:     "https://app.test/billing/cancel",
		Prices:        map[string]string{"pro": "price_pro"},
	}
	if url != "" {
		cfg.Backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(url),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
	}

	s, err := NewStripe(cfg)
	require.NoError(t, err)
	return s
}

func signedEvent(t *testing.T, body string) ([]byte, string) {
	t.Helper()

	p := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    whsec,
		Timestamp: time.Now(),
	})
	return p.Payload, p.Header
}

func TestNewStripeDisabled(t *testing.T) {
	_, err := NewStripe(Config{})
	assert.ErrorIs(t, err, ErrBillingDisabled)

	_, err = NewStripe(Config{SecretKey: "sk_test"})
	assert.Error(t, err)
}

func TestCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_pro", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "u1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "pro", r.PostForm.Get("metadata[planId]"))
		assert.Equal(t, "u1", r.PostForm.Get("subscription_data[metadata][uid]"))
		assert.Equal(t, "a@b.c", r.PostForm.Get("customer_email"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	t.Cleanup(srv.Close)

	s := newStripe(t, srv.URL)

	co, err := s.Checkout(context.Background(), &model.User{UID: "u1", Email: "a@b.c"}, "pro")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", co.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", co.URL)

	_, err = s.Checkout(context.Background(), &model.User{UID: "u1"}, "enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	ctx := context.Background()
	d := newAccess(t)
	seed(t, d, "u1")
	s := newStripe(t, "")

	payload, sig := signedEvent(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"u1","metadata":{"uid":"u1","planId":"pro"}}}}`)

	require.NoError(t, s.HandleWebhook(ctx, d, payload, sig))

	u, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "pro", u.Plan)
	assert.Equal(t, model.DefaultStorageLimit, u.StorageLimit)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newAccess(t)
	seed(t, d, "u1")
	s := newStripe(t, "")

	cases := []struct {
		name string
		body string
		plan string
	}{
		{"active", `{"id":"evt_2","object":"event","type":"customer.subscription.updated",
			"data":{"object":{"id":"sub_1","object":"subscription","status":"active","metadata":{"uid":"u1","planId":"pro"}}}}`, "pro"},
		{"past due", `{"id":"evt_3","object":"event","type":"customer.subscription.updated",
			"data":{"object":{"id":"sub_1","object":"subscription","status":"past_due","metadata":{"uid":"u1","planId":"pro"}}}}`, model.PlanFree},
		{"deleted", `{"id":"evt_4","object":"event","type":"customer.subscription.deleted",
			"data":{"object":{"id":"sub_1","object":"subscription","status":"canceled","metadata":{"uid":"u1","planId":"pro"}}}}`, model.PlanFree},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, sig := signedEvent(t, tc.body)
			require.NoError(t, s.HandleWebhook(ctx, d, payload, sig))

			u, err := d.GetUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, tc.plan, u.Plan)
		})
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	d := newAccess(t)
	seed(t, d, "u1")
	s := newStripe(t, "")

	body := `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"u1","metadata":{"planId":"pro"}}}}`

	p := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})

	err := s.HandleWebhook(ctx, d, p.Payload, p.Header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = s.HandleWebhook(ctx, d, []byte(body), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	u, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, u.Plan)
}

func TestWebhookCreatesUnknownUsers(t *testing.T) {
	ctx := context.Background()
	d := newAccess(t)
	s := newStripe(t, "")

	payload, sig := signedEvent(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"ghost","metadata":{"planId":"pro"}}}}`)
	require.NoError(t, s.HandleWebhook(ctx, d, payload, sig))

	u, err := d.GetUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "pro", u.Plan)
	assert.EqualValues(t, model.DefaultStorageLimit, u.StorageLimit)
	assert.EqualValues(t, 0, u.StorageUsed)

	payload, sig = signedEvent(t, `{"id":"evt_5","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
	assert.NoError(t, s.HandleWebhook(ctx, d, payload, sig))
}

func TestRedeemGiftCode(t *testing.T) {
	ctx := context.Background()
	d := newAccess(t)
	seed(t, d, "u1")

	hash, err := security.New().Hash("WELCOME")
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGiftCodes([]string{hash}, func() time.Time { return now })

	_, err = g.Redeem(ctx, d, "u1", "nope")
	assert.ErrorIs(t, err, ErrInvalidGiftCode)

	_, err = g.Redeem(ctx, d, "u1", "   ")
	assert.ErrorIs(t, err, ErrInvalidGiftCode)

	u, err := g.Redeem(ctx, d, "u1", " welcome ")
	require.NoError(t, err)
	assert.True(t, u.GiftCodeUsed)
	require.NotNil(t, u.TrialExpiresAt)
	assert.True(t, now.Add(7*24*time.Hour).Equal(*u.TrialExpiresAt))
	assert.Equal(t, model.PlanFree, u.Plan)

	_, err = g.Redeem(ctx, d, "u1", "WELCOME")
	assert.ErrorIs(t, err, ErrGiftCodeUsed)

	_, err = g.Redeem(ctx, d, "nobody", "WELCOME")
	assert.ErrorIs(t, err, store.ErrAuthRequired)
}
