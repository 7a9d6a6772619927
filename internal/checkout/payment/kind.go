// Package payment negotiates payment sessions with the commerce backend and
// dispatches confirmation to the provider adapter matching the session's
// provider kind.
package payment

import "strings"

// Kind is the closed set of provider adapter variants. Classification
// happens once, at the negotiator boundary; consumers thread the Kind
// through instead of re-inspecting provider identifiers.
type Kind uint8

const (
	// KindUnsupported renders an informational placeholder and never
	// confirms.
	KindUnsupported Kind = iota
	// KindHostedForm confirms through an external hosted card form using a
	// token from the session payload.
	KindHostedForm
	// KindManual has no external confirmation step; placing the order is
	// the confirmation.
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindHostedForm:
		return "hosted_form"
	case KindManual:
		return "manual"
	default:
		return "unsupported"
	}
}

// Classify maps a provider identifier to its adapter kind by the backend's
// naming convention: hosted card processors register as pp_stripe_* (or the
// bare "stripe" in older configurations), the built-in pay-later provider as
// pp_system_default*. Everything else is unsupported.
func Classify(providerID string) Kind {
	switch {
	case strings.HasPrefix(providerID, "pp_stripe_"), providerID == "stripe":
		return KindHostedForm
	case strings.HasPrefix(providerID, "pp_system_default"):
		return KindManual
	default:
		return KindUnsupported
	}
}
