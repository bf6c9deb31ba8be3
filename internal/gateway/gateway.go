// Package gateway abstracts the payment provider behind a small interface
// so the payment service can be tested without network calls.
package gateway

import "context"

// Intent is the provider-side payment intent, reduced to the fields the
// reconciler cares about.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
}

// Succeeded reports whether the provider considers the intent paid.
func (i *Intent) Succeeded() bool {
	return i.Status == "succeeded"
}

// CreateIntentRequest carries everything needed to open an intent.
// Metadata ends up on the provider object so webhooks can be traced back
// to the user and plan that triggered them.
type CreateIntentRequest struct {
	AmountMinor int64
	Currency    string
	UserID      string
	PlanID      string
}

// Gateway is the payment provider client.
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}
