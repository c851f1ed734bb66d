package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
)

const testWebhookSecret = "whsec_test"

// useFakeStripe points the Stripe client at handler for the duration of the test.
func useFakeStripe(t *testing.T, handler http.Handler) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := stripe.GetBackend(stripe.APIBackend)
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		MaxNetworkRetries: stripe.Int64(0),
	}))
	t.Cleanup(func() {
		stripe.SetBackend(stripe.APIBackend, orig)
		srv.Close()
	})
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestNewStripeProvider(t *testing.T) {
	provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())

	assert.NotNil(t, provider)
	assert.True(t, provider.Enabled())
	assert.True(t, provider.WebhookEnabled())

	assert.False(t, NewStripeProvider("", "", zap.NewNop()).Enabled())
	assert.False(t, NewStripeProvider("sk_test_123", "", zap.NewNop()).WebhookEnabled())
}

func TestFindOrCreateCustomer_ExistingIsCached(t *testing.T) {
	var lists, creates int32
	useFakeStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/customers":
			atomic.AddInt32(&lists, 1)
			assert.Equal(t, "jane@example.com", r.URL.Query().Get("email"))
			fmt.Fprint(w, `{"object":"list","url":"/v1/customers","has_more":false,"data":[{"id":"cus_existing","object":"customer","email":"jane@example.com"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
			atomic.AddInt32(&creates, 1)
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())
	for i := 0; i < 2; i++ {
		id, err := provider.FindOrCreateCustomer(context.Background(), "jane@example.com", "Jane")
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&lists))
	assert.Zero(t, atomic.LoadInt32(&creates))
}

func TestFindOrCreateCustomer_CreatesWhenAbsent(t *testing.T) {
	useFakeStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"object":"list","url":"/v1/customers","has_more":false,"data":[]}`)
		case http.MethodPost:
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "new@example.com", r.PostForm.Get("email"))
			assert.Equal(t, "Nia", r.PostForm.Get("name"))
			fmt.Fprint(w, `{"id":"cus_new","object":"customer","email":"new@example.com"}`)
		}
	}))

	provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())
	id, err := provider.FindOrCreateCustomer(context.Background(), "new@example.com", "Nia")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
}

func TestFindOrCreateCustomer_NormalizesEmail(t *testing.T) {
	var lists int32
	useFakeStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&lists, 1)
			assert.Equal(t, "jane@example.com", r.URL.Query().Get("email"))
			fmt.Fprint(w, `{"object":"list","url":"/v1/customers","has_more":false,"data":[]}`)
		case http.MethodPost:
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "jane@example.com", r.PostForm.Get("email"))
			fmt.Fprint(w, `{"id":"cus_jane","object":"customer","email":"jane@example.com"}`)
		}
	}))

	provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())
	id, err := provider.FindOrCreateCustomer(context.Background(), " Jane@Example.COM ", "")
	require.NoError(t, err)
	assert.Equal(t, "cus_jane", id)

	id, err = provider.FindOrCreateCustomer(context.Background(), "jane@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "cus_jane", id)
	assert.Equal(t, int32(1), atomic.LoadInt32(&lists))
}

func TestFindOrCreateCustomer_APIError(t *testing.T) {
	useFakeStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"Invalid API Key"}}`)
	}))

	provider := NewStripeProvider("sk_test_bad", testWebhookSecret, zap.NewNop())
	_, err := provider.FindOrCreateCustomer(context.Background(), "jane@example.com", "")
	assert.ErrorContains(t, err, "failed to list customers")
}

func TestCreateCheckoutSession(t *testing.T) {
	tests := []struct {
		name             string
		mode             models.CheckoutMode
		wantSubscription bool
	}{
		{"subscription copies metadata", models.CheckoutModeSubscription, true},
		{"payment has no subscription data", models.CheckoutModePayment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFakeStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
				assert.NoError(t, r.ParseForm())
				form := r.PostForm
				assert.Equal(t, string(tt.mode), form.Get("mode"))
				assert.Equal(t, "cus_1", form.Get("customer"))
				assert.Equal(t, "price_1", form.Get("line_items[0][price]"))
				assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
				assert.Equal(t, "https://atl.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
				assert.Equal(t, "https://atl.test/checkout/cancel", form.Get("cancel_url"))
				assert.Equal(t, "sub_123", form.Get("metadata[submission_id]"))
				assert.Equal(t, "premium", form.Get("metadata[tier]"))
				if tt.wantSubscription {
					assert.Equal(t, "premium", form.Get("subscription_data[metadata][tier]"))
				} else {
					assert.Empty(t, form.Get("subscription_data[metadata][tier]"))
				}
				fmt.Fprint(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
			}))

			provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())
			sess, err := provider.CreateCheckoutSession(context.Background(), models.CheckoutSessionParams{
				CustomerID: "cus_1",
				PriceID:    "price_1",
				Mode:       tt.mode,
				SuccessURL: "https://atl.test/checkout/success?session_id={CHECKOUT_SESSION_ID}",
				CancelURL:  "https://atl.test/checkout/cancel",
				Metadata: map[string]string{
					models.MetadataSubmissionID:   "sub_123",
					models.MetadataSubmissionType: "business",
					models.MetadataTier:           "premium",
				},
			})
			require.NoError(t, err)
			assert.Equal(t, "cs_test_1", sess.ID)
			assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)
		})
	}
}

func TestConstructEvent(t *testing.T) {
	provider := NewStripeProvider("sk_test_123", testWebhookSecret, zap.NewNop())
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1"}}}`)

	t.Run("valid signature", func(t *testing.T) {
		event, err := provider.ConstructEvent(payload, sign(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, stripe.EventTypeInvoicePaymentFailed, event.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := provider.ConstructEvent(payload, sign(payload, "whsec_other", time.Now()))
		var sigErr *models.SignatureError
		assert.ErrorAs(t, err, &sigErr)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := sign(payload, testWebhookSecret, time.Now())
		_, err := provider.ConstructEvent(append([]byte(" "), payload...), header)
		var sigErr *models.SignatureError
		assert.ErrorAs(t, err, &sigErr)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := provider.ConstructEvent(payload, sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
		var sigErr *models.SignatureError
		assert.ErrorAs(t, err, &sigErr)
	})
}
