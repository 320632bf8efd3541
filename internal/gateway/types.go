package gateway

// RawResponse is the minimally parsed shape of a provider's checkout response
// before normalization. Providers fill only the fields they have; the
// normalizer decides what the combination means.
type RawResponse struct {
	// OrderID is PayPal's order identifier.
	OrderID string
	// SessionID is Stripe's checkout session identifier.
	SessionID string
	// URL is the hosted checkout URL (Stripe).
	URL string
	// ApprovalURL is the buyer approval link (PayPal).
	ApprovalURL string
	// Status is the provider's own status string, untranslated.
	Status string
	// Message carries provider detail for non-redirect outcomes (wallet).
	Message string
}

// RedirectURL returns whichever redirect link the provider supplied, or ""
// when there is none.
func (r *RawResponse) RedirectURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.ApprovalURL
}
