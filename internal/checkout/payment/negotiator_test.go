package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

type mockPaymentAPI struct {
	providers []commerce.PaymentProvider
	refetched *commerce.Cart

	calls []string
}

func (m *mockPaymentAPI) ListPaymentProviders(_ context.Context, regionID string) ([]commerce.PaymentProvider, error) {
	m.calls = append(m.calls, "list:"+regionID)
	return m.providers, nil
}

func (m *mockPaymentAPI) InitiatePaymentSession(_ context.Context, cart *commerce.Cart, providerID string) error {
	m.calls = append(m.calls, "initiate:"+providerID)
	return nil
}

func (m *mockPaymentAPI) RetrieveCart(_ context.Context, cartID string) (*commerce.Cart, error) {
	m.calls = append(m.calls, "retrieve:"+cartID)
	return m.refetched, nil
}

func TestListProviders_ClassifiesOnce(t *testing.T) {
	api := &mockPaymentAPI{providers: []commerce.PaymentProvider{
		{ID: "pp_stripe_stripe"},
		{ID: "pp_system_default"},
		{ID: "pp_paypal_paypal"},
	}}
	n := NewNegotiator(api)

	opts, err := n.ListProviders(context.Background(), "reg_1")
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.Equal(t, KindHostedForm, opts[0].Kind)
	assert.Equal(t, KindManual, opts[1].Kind)
	assert.Equal(t, KindUnsupported, opts[2].Kind)
}

func TestSelect_InitiatesThenRefetches(t *testing.T) {
	refetched := &commerce.Cart{
		ID: "cart_1",
		PaymentCollection: &commerce.PaymentCollection{
			ID: "paycol_1",
			Sessions: []commerce.PaymentSession{
				{ID: "payses_1", ProviderID: "pp_stripe_stripe", Data: []byte(`{"client_secret":"pi_1_secret_x"}`)},
			},
		},
	}
	api := &mockPaymentAPI{refetched: refetched}
	n := NewNegotiator(api)

	cart, err := n.Select(context.Background(), &commerce.Cart{ID: "cart_1", RegionID: "reg_1"}, "pp_stripe_stripe")
	require.NoError(t, err)
	assert.Equal(t, []string{"initiate:pp_stripe_stripe", "retrieve:cart_1"}, api.calls,
		"session payload is only visible after a refetch")

	sess := ActiveSession(cart)
	require.NotNil(t, sess)
	secret, ok := sess.ClientSecret()
	require.True(t, ok)
	assert.Equal(t, "pi_1_secret_x", secret)
}

func TestSelect_NoRegion(t *testing.T) {
	n := NewNegotiator(&mockPaymentAPI{})

	_, err := n.Select(context.Background(), &commerce.Cart{ID: "cart_1"}, "pp_system_default")
	require.ErrorIs(t, err, ErrNoRegion)
}

func TestActiveSession(t *testing.T) {
	assert.Nil(t, ActiveSession(nil))
	assert.Nil(t, ActiveSession(&commerce.Cart{}))
	assert.Nil(t, ActiveSession(&commerce.Cart{PaymentCollection: &commerce.PaymentCollection{}}))

	cart := &commerce.Cart{PaymentCollection: &commerce.PaymentCollection{
		Sessions: []commerce.PaymentSession{{ID: "payses_1"}, {ID: "payses_2"}},
	}}
	sess := ActiveSession(cart)
	require.NotNil(t, sess)
	assert.Equal(t, "payses_1", sess.ID)
}
