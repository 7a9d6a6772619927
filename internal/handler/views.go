package handler

import (
	"github.com/xenking/storefront-checkout/internal/checkout/payment"
	"github.com/xenking/storefront-checkout/internal/checkout/shipping"
	"github.com/xenking/storefront-checkout/internal/commerce"
	"github.com/xenking/storefront-checkout/internal/money"
)

type lineItemView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

type paymentSessionView struct {
	ProviderID   string `json:"provider_id"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type cartView struct {
	ID            string         `json:"id"`
	RegionID      string         `json:"region_id"`
	CurrencyCode  string         `json:"currency_code"`
	Email         string         `json:"email,omitempty"`
	Items         []lineItemView `json:"items"`
	Subtotal      int64          `json:"subtotal"`
	ShippingTotal int64          `json:"shipping_total"`
	TaxTotal      int64          `json:"tax_total"`
	DiscountTotal int64          `json:"discount_total"`
	Total         int64          `json:"total"`
	TotalDisplay  string         `json:"total_display"`

	ShippingOptionID string              `json:"shipping_option_id,omitempty"`
	PaymentSession   *paymentSessionView `json:"payment_session,omitempty"`
}

func newCartView(cart *commerce.Cart) cartView {
	items := make([]lineItemView, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = lineItemView{
			ID:        it.ID,
			Title:     it.Title,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		}
	}

	v := cartView{
		ID:            cart.ID,
		RegionID:      cart.RegionID,
		CurrencyCode:  cart.CurrencyCode,
		Email:         cart.Email,
		Items:         items,
		Subtotal:      cart.Subtotal,
		ShippingTotal: cart.ShippingTotal,
		TaxTotal:      cart.TaxTotal,
		DiscountTotal: cart.DiscountTotal,
		Total:         cart.Total,
		TotalDisplay:  money.Display(cart.Total, cart.CurrencyCode),
	}
	if len(cart.ShippingMethods) > 0 {
		v.ShippingOptionID = cart.ShippingMethods[0].ShippingOptionID
	}
	if sess := payment.ActiveSession(cart); sess != nil {
		sv := &paymentSessionView{
			ProviderID: sess.ProviderID,
			Kind:       payment.Classify(sess.ProviderID).String(),
			Status:     sess.Status,
		}
		if secret, ok := sess.ClientSecret(); ok {
			sv.ClientSecret = secret
		}
		v.PaymentSession = sv
	}
	return v
}

type shippingOptionView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceType     string `json:"price_type"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display,omitempty"`
	Pending       bool   `json:"pending"`
	Fallback      bool   `json:"fallback"`
}

func newShippingOptionViews(opts []shipping.Option, currencyCode string) []shippingOptionView {
	views := make([]shippingOptionView, len(opts))
	for i, o := range opts {
		views[i] = shippingOptionView{
			ID:        o.ID,
			Name:      o.Name,
			PriceType: string(o.PriceType),
			Amount:    o.Amount,
			Pending:   o.Pending,
			Fallback:  o.Fallback,
		}
		if !o.Pending {
			views[i].AmountDisplay = money.Display(o.Amount, currencyCode)
		}
	}
	return views
}

type providerView struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type orderView struct {
	ID           string         `json:"id"`
	DisplayID    int            `json:"display_id"`
	Email        string         `json:"email"`
	CurrencyCode string         `json:"currency_code"`
	Items        []lineItemView `json:"items"`
	Total        int64          `json:"total"`
	TotalDisplay string         `json:"total_display"`
}

func newOrderView(order *commerce.Order) orderView {
	items := make([]lineItemView, len(order.Items))
	for i, it := range order.Items {
		items[i] = lineItemView{
			ID:        it.ID,
			Title:     it.Title,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		}
	}
	return orderView{
		ID:           order.ID,
		DisplayID:    order.DisplayID,
		Email:        order.Email,
		CurrencyCode: order.CurrencyCode,
		Items:        items,
		Total:        order.Total,
		TotalDisplay: money.Display(order.Total, order.CurrencyCode),
	}
}
