package payment

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

type stubConfirmer struct {
	status  string
	message string
	err     error

	gotSecret string
	gotReturn string
}

func (s *stubConfirmer) ConfirmIntent(_ context.Context, clientSecret, returnURL string) (string, string, error) {
	s.gotSecret = clientSecret
	s.gotReturn = returnURL
	return s.status, s.message, s.err
}

func TestHostedForm_MissingSecretIsInitializing(t *testing.T) {
	confirmer := &stubConfirmer{}
	h := NewHostedForm(confirmer)

	sess := &commerce.PaymentSession{ProviderID: "pp_stripe_stripe"}
	res, err := h.Confirm(context.Background(), sess, "https://shop.test/done")
	require.NoError(t, err, "a missing token is a pending state, not an error")
	assert.Equal(t, StatusInitializing, res.Status)
	assert.Empty(t, confirmer.gotSecret, "no external call without a token")
}

func TestHostedForm_Succeeded(t *testing.T) {
	confirmer := &stubConfirmer{status: "succeeded"}
	h := NewHostedForm(confirmer)

	sess := &commerce.PaymentSession{Data: []byte(`{"client_secret":"pi_1_secret_x"}`)}
	res, err := h.Confirm(context.Background(), sess, "https://shop.test/done")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
	assert.Equal(t, "pi_1_secret_x", confirmer.gotSecret)
	assert.Equal(t, "https://shop.test/done", confirmer.gotReturn)
}

func TestHostedForm_RequiresAction(t *testing.T) {
	h := NewHostedForm(&stubConfirmer{status: "requires_action"})

	sess := &commerce.PaymentSession{Data: []byte(`{"client_secret":"pi_1_secret_x"}`)}
	res, err := h.Confirm(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Equal(t, StatusRequiresAction, res.Status)
}

func TestHostedForm_DeclineCarriesMessage(t *testing.T) {
	h := NewHostedForm(&stubConfirmer{status: "failed", message: "Your card was declined."})

	sess := &commerce.PaymentSession{Data: []byte(`{"client_secret":"pi_1_secret_x"}`)}
	res, err := h.Confirm(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Your card was declined.", res.Message)
}

func TestHostedForm_FailureDefaultMessage(t *testing.T) {
	h := NewHostedForm(&stubConfirmer{status: "canceled"})

	sess := &commerce.PaymentSession{Data: []byte(`{"client_secret":"pi_1_secret_x"}`)}
	res, err := h.Confirm(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Payment failed", res.Message)
}

func TestHostedForm_TransportError(t *testing.T) {
	h := NewHostedForm(&stubConfirmer{err: errors.New("connection reset")})

	sess := &commerce.PaymentSession{Data: []byte(`{"client_secret":"pi_1_secret_x"}`)}
	_, err := h.Confirm(context.Background(), sess, "")
	require.Error(t, err)
}

func TestManualConfirm(t *testing.T) {
	res, err := Manual{}.Confirm(context.Background(), &commerce.PaymentSession{}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
}

func TestUnsupportedConfirm(t *testing.T) {
	_, err := Unsupported{}.Confirm(context.Background(), &commerce.PaymentSession{}, "")
	require.ErrorIs(t, err, ErrConfirmUnsupported)
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(NewHostedForm(&stubConfirmer{}), Manual{}, Unsupported{})

	assert.Equal(t, KindHostedForm, r.Resolve("pp_stripe_stripe").Kind())
	assert.Equal(t, KindManual, r.Resolve("pp_system_default").Kind())
	assert.Equal(t, KindUnsupported, r.Resolve("pp_paypal_paypal").Kind())

	// Missing adapter falls back to Unsupported.
	partial := NewRegistry(Manual{})
	assert.Equal(t, KindUnsupported, partial.Resolve("pp_stripe_stripe").Kind())
}
