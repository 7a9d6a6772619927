package commerce

import (
	"encoding/json"

	"github.com/go-faster/jx"
)

// PriceType distinguishes shipping options with a fixed price from options
// whose price is computed per cart by the backend.
type PriceType string

const (
	PriceTypeFlat       PriceType = "flat"
	PriceTypeCalculated PriceType = "calculated"
)

// Cart is the backend-owned pre-order aggregate. All monetary amounts are
// integer minor currency units (cents).
type Cart struct {
	ID            string     `json:"id"`
	RegionID      string     `json:"region_id"`
	CurrencyCode  string     `json:"currency_code"`
	Email         string     `json:"email"`
	Items         []LineItem `json:"items"`
	Subtotal      int64      `json:"subtotal"`
	ShippingTotal int64      `json:"shipping_total"`
	TaxTotal      int64      `json:"tax_total"`
	DiscountTotal int64      `json:"discount_total"`
	Total         int64      `json:"total"`

	ShippingMethods   []ShippingMethod   `json:"shipping_methods"`
	PaymentCollection *PaymentCollection `json:"payment_collection"`
}

// LineItem is a quantity of a product variant attached to a cart.
type LineItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// ShippingMethod is a fulfillment option committed to a cart.
type ShippingMethod struct {
	ID               string `json:"id"`
	ShippingOptionID string `json:"shipping_option_id"`
	Amount           int64  `json:"amount"`
}

// ShippingOption is a fulfillment option available to a cart. Amount is only
// meaningful for flat options; calculated options resolve their amount
// through CalculateShippingOption.
type ShippingOption struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PriceType PriceType `json:"price_type"`
	Amount    int64     `json:"amount"`
}

// PaymentProvider identifies an external service able to collect payment for
// a region.
type PaymentProvider struct {
	ID string `json:"id"`
}

// PaymentCollection groups the payment sessions negotiated for a cart.
type PaymentCollection struct {
	ID       string           `json:"id"`
	Sessions []PaymentSession `json:"payment_sessions"`
}

// PaymentSession is provider-specific negotiated state enabling a single
// confirmation attempt. Data is an opaque provider payload.
type PaymentSession struct {
	ID         string          `json:"id"`
	ProviderID string          `json:"provider_id"`
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data"`
}

// ClientSecret extracts the hosted-form confirmation token from the session
// payload. The second return is false when the provider has not populated it
// yet, which callers treat as "session still initializing".
func (s *PaymentSession) ClientSecret() (string, bool) {
	if len(s.Data) == 0 {
		return "", false
	}
	var secret string
	d := jx.DecodeBytes(s.Data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "client_secret" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		secret = v
		return nil
	}); err != nil {
		return "", false
	}
	return secret, secret != ""
}

// Region scopes currency, shipping options, and payment providers.
type Region struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
}

// Order is the immutable result of completing a cart.
type Order struct {
	ID            string     `json:"id"`
	DisplayID     int        `json:"display_id"`
	Email         string     `json:"email"`
	CurrencyCode  string     `json:"currency_code"`
	Items         []LineItem `json:"items"`
	Subtotal      int64      `json:"subtotal"`
	ShippingTotal int64      `json:"shipping_total"`
	TaxTotal      int64      `json:"tax_total"`
	Total         int64      `json:"total"`
}

// CompleteResult classifies the outcome of a cart completion call. Exactly
// one of Order or Cart is set: Order when the backend created the order,
// Cart (with Err) when it returned the cart unchanged alongside an error.
type CompleteResult struct {
	Order *Order
	Cart  *Cart
	Err   string
}

// OrderCreated reports whether completion produced an order.
func (r *CompleteResult) OrderCreated() bool {
	return r.Order != nil
}
