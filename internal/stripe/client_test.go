package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{SecretKey: "sk_test_123", BaseURL: srv.URL, Client: srv.Client()})
}

func TestConfirmIntent_Succeeded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_123/confirm", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123_secret_abc", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://shop.test/done", r.PostForm.Get("return_url"))

		json.NewEncoder(w).Encode(map[string]string{"status": "succeeded"})
	})

	status, msg, err := client.ConfirmIntent(context.Background(), "pi_123_secret_abc", "https://shop.test/done")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
	assert.Empty(t, msg)
}

func TestConfirmIntent_RequiresAction(t *testing.T) {
	for _, wire := range []string{"requires_action", "requires_source_action"} {
		t.Run(wire, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"status": wire})
			})

			status, _, err := client.ConfirmIntent(context.Background(), "pi_1_secret_x", "")
			require.NoError(t, err)
			assert.Equal(t, StatusRequiresAction, status)
		})
	}
}

func TestConfirmIntent_CardDeclined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type":    "card_error",
				"message": "Your card was declined.",
			},
		})
	})

	status, msg, err := client.ConfirmIntent(context.Background(), "pi_1_secret_x", "")
	require.NoError(t, err, "a decline is an outcome, not an error")
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "Your card was declined.", msg)
}

func TestConfirmIntent_FailedWithLastPaymentError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":             "requires_payment_method",
			"last_payment_error": map[string]string{"message": "Insufficient funds."},
		})
	})

	status, msg, err := client.ConfirmIntent(context.Background(), "pi_1_secret_x", "")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "Insufficient funds.", msg)
}

func TestConfirmIntent_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.ConfirmIntent(context.Background(), "pi_1_secret_x", "")
	require.Error(t, err)
}

func TestConfirmIntent_MalformedSecret(t *testing.T) {
	client := New(Config{SecretKey: "sk_test_123"})

	_, _, err := client.ConfirmIntent(context.Background(), "not-a-secret", "")
	require.Error(t, err)
}

func TestIntentIDFromSecret(t *testing.T) {
	id, ok := intentIDFromSecret("pi_3abc_secret_xyz")
	require.True(t, ok)
	assert.Equal(t, "pi_3abc", id)

	_, ok = intentIDFromSecret("_secret_xyz")
	assert.False(t, ok)
}
