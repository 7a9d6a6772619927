package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{0, "usd", "$0.00"},
		{500, "usd", "$5.00"},
		{1500, "usd", "$15.00"},
		{1999, "eur", "€19.99"},
		{1050, "gbp", "£10.50"},
		{500, "jpy", "¥500"},
		{100, "krw", "KRW 100"},
		{250, "aud", "AUD 2.50"},
		{-500, "usd", "$-5.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Display(tt.minor, tt.currency))
	}
}
